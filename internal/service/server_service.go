package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"golang.org/x/crypto/ssh"
)

type ServerServicer interface {
	CreateServer(
		ctx context.Context,
		credentialID *int64,
		name, hostname, workspace, description, osType string,
	) (*store.Server, error)
	GetServerByID(context.Context, int64) (*store.Server, error)
	ListServers(context.Context) ([]*store.Server, error)
	UpdateServer(context.Context, *store.Server) error
	DeleteServer(context.Context, int64) error

	TestServerConnection(context.Context, int64) error
}

type ServerService struct {
	serverStore store.ServerStore

	credentialService CredentialServicer
}

func NewServerService(s store.ServerStore, cs CredentialServicer) *ServerService {
	return &ServerService{serverStore: s, credentialService: cs}
}

func (s *ServerService) CreateServer(
	ctx context.Context,
	credentialID *int64,
	name, hostname, workspace, description, osType string,
) (*store.Server, error) {
	return s.serverStore.CreateServer(
		ctx,
		credentialID,
		name,
		hostname,
		workspace,
		description,
		osType,
	)
}

func (s *ServerService) GetServerByID(ctx context.Context, serverID int64) (*store.Server, error) {
	return s.serverStore.ReadServerByID(ctx, serverID)
}

func (s *ServerService) ListServers(ctx context.Context) ([]*store.Server, error) {
	servers, err := s.serverStore.ListServers(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return servers, nil
}

func (s *ServerService) UpdateServer(ctx context.Context, server *store.Server) error {
	return s.serverStore.UpdateServer(ctx, server)
}

func (s *ServerService) DeleteServer(ctx context.Context, serverID int64) error {
	return s.serverStore.DeleteServer(ctx, serverID)
}

// TestServerConnection opens and closes an SSH connection with the server's
// credential to verify the server is reachable.
func (s *ServerService) TestServerConnection(ctx context.Context, serverID int64) error {
	server, err := s.GetServerByID(ctx, serverID)
	if err != nil {
		return err
	}
	if server.ServerCredentialID == nil {
		return ProjectConfigError{Message: "server has no SSH credential"}
	}

	cred, err := s.credentialService.GetCredentialByID(ctx, *server.ServerCredentialID)
	if err != nil {
		return err
	}

	privateKey, err := s.credentialService.DecryptAES(cred.SSHPrivateKeyHash)
	if err != nil {
		return err
	}
	signer, err := ssh.ParsePrivateKey(privateKey)
	if err != nil {
		return err
	}
	auth := ssh.PublicKeys(signer)
	cc := &ssh.ClientConfig{
		User:            cred.Username,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	hostname := server.Hostname
	if !strings.Contains(hostname, ":") {
		hostname += ":22"
	}

	client, err := ssh.Dial("tcp", hostname, cc)
	if err != nil {
		return err
	}
	defer client.Close()
	return nil
}
