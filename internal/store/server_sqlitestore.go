package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type ServerSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewServerSQLiteStore(rdb, rwdb *sql.DB) *ServerSQLiteStore {
	return &ServerSQLiteStore{rdb, rwdb}
}

func (store *ServerSQLiteStore) CreateServer(
	ctx context.Context,
	credentialID *int64,
	name, hostname, workspace, description, osType string,
) (*Server, error) {
	s := &Server{
		ServerCredentialID: credentialID,
		Name:               name,
		Hostname:           hostname,
		Workspace:          workspace,
		Description:        description,
		OSType:             osType,
	}
	query := `insert into servers (
		server_credential_id,
		name,
		hostname,
		workspace,
		description,
		os_type
	)
	values ($1, $2, $3, $4, $5, $6)
	returning server_id`
	err := sqlscan.Get(
		ctx, store.rwdb, s, query,
		s.ServerCredentialID,
		s.Name,
		s.Hostname,
		s.Workspace,
		s.Description,
		s.OSType,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (store *ServerSQLiteStore) ReadServerByID(ctx context.Context, id int64) (*Server, error) {
	s := &Server{ServerID: id}
	query := `select * from servers where server_id = $1`
	err := sqlscan.Get(ctx, store.rdb, s, query, s.ServerID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (store *ServerSQLiteStore) UpdateServer(ctx context.Context, s *Server) error {
	query := `update servers
	set server_credential_id = $1,
		name = $2,
		hostname = $3,
		workspace = $4,
		description = $5,
		os_type = $6
	where server_id = $7`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		s.ServerCredentialID,
		s.Name,
		s.Hostname,
		s.Workspace,
		s.Description,
		s.OSType,
		s.ServerID,
	)
	return err
}

func (store *ServerSQLiteStore) DeleteServer(ctx context.Context, id int64) error {
	query := `delete from servers where server_id = $1`
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *ServerSQLiteStore) ListServers(ctx context.Context) ([]*Server, error) {
	query := `select * from servers order by name asc`
	servers := make([]*Server, 0)
	err := sqlscan.Select(ctx, store.rdb, &servers, query)
	return servers, err
}
