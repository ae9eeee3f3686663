package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type ProjectSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewProjectSQLiteStore(rdb, rwdb *sql.DB) *ProjectSQLiteStore {
	return &ProjectSQLiteStore{rdb, rwdb}
}

func (store *ProjectSQLiteStore) CreateProject(
	ctx context.Context,
	p *Project,
) (*Project, error) {
	if p.Provider == "" {
		p.Provider = ProviderCustom
	}
	query := `insert into projects (
		project_server_id,
		slug,
		name,
		repository,
		branch,
		provider,
		provider_base_url,
		provider_token_hash,
		provider_username,
		workflow_file,
		provider_project_id,
		job_name
	)
	values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	returning project_id`
	if err := sqlscan.Get(
		ctx, store.rwdb, p, query,
		p.ProjectServerID,
		p.Slug,
		p.Name,
		p.Repository,
		p.Branch,
		p.Provider,
		p.ProviderBaseURL,
		p.ProviderTokenHash,
		p.ProviderUsername,
		p.WorkflowFile,
		p.ProviderProjectID,
		p.JobName,
	); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *ProjectSQLiteStore) ReadProjectByID(
	ctx context.Context,
	id int64,
) (*Project, error) {
	p := &Project{ProjectID: id}
	query := `select * from projects where project_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, p, query, p.ProjectID); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *ProjectSQLiteStore) ReadProjectBySlug(
	ctx context.Context,
	slug string,
) (*Project, error) {
	p := &Project{Slug: slug}
	query := `select * from projects where slug = $1`
	if err := sqlscan.Get(ctx, store.rdb, p, query, p.Slug); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *ProjectSQLiteStore) ReadProjectRunData(
	ctx context.Context,
	id int64,
) (*RunData, error) {
	rd := &RunData{}
	query := `select
		p.project_id,
		p.slug,
		p.repository,
		p.provider,
		p.provider_base_url,
		p.provider_token_hash,
		p.provider_username,
		p.workflow_file,
		p.provider_project_id,
		p.job_name,
		s.server_id,
		s.hostname,
		s.workspace,
		s.os_type,
		c.username,
		c.ssh_private_key_hash
	from projects p
	left join servers s
	on p.project_server_id = s.server_id
	left join credentials c
	on s.server_credential_id = c.credential_id
	where p.project_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, rd, query, id); err != nil {
		return nil, err
	}
	return rd, nil
}

func (store *ProjectSQLiteStore) UpdateProject(ctx context.Context, p *Project) error {
	query := `update projects
	set project_server_id = $1,
		slug = $2,
		name = $3,
		repository = $4,
		branch = $5,
		provider = $6,
		provider_base_url = $7,
		provider_token_hash = $8,
		provider_username = $9,
		workflow_file = $10,
		provider_project_id = $11,
		job_name = $12
	where project_id = $13`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		p.ProjectServerID,
		p.Slug,
		p.Name,
		p.Repository,
		p.Branch,
		p.Provider,
		p.ProviderBaseURL,
		p.ProviderTokenHash,
		p.ProviderUsername,
		p.WorkflowFile,
		p.ProviderProjectID,
		p.JobName,
		p.ProjectID,
	)
	return err
}

func (store *ProjectSQLiteStore) UpdateProjectSchedule(
	ctx context.Context,
	id int64,
	schedule, branch, jobID *string,
) error {
	query := `update projects
	set schedule = $1,
		schedule_branch = $2,
		schedule_job_id = $3
	where project_id = $4`
	_, err := store.rwdb.ExecContext(ctx, query, schedule, branch, jobID, id)
	return err
}

func (store *ProjectSQLiteStore) UpdateProjectScheduleJobID(
	ctx context.Context,
	id int64,
	jobID *string,
) error {
	query := `update projects
	set schedule_job_id = $1
	where project_id = $2`
	_, err := store.rwdb.ExecContext(ctx, query, jobID, id)
	return err
}

func (store *ProjectSQLiteStore) DeleteProject(ctx context.Context, id int64) error {
	query := `delete from projects where project_id = $1`
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *ProjectSQLiteStore) ListProjects(ctx context.Context) ([]*Project, error) {
	query := `select * from projects order by slug asc`
	projects := make([]*Project, 0)
	err := sqlscan.Select(ctx, store.rdb, &projects, query)
	return projects, err
}

func (store *ProjectSQLiteStore) ListScheduledProjects(
	ctx context.Context,
) ([]*Project, error) {
	query := `select * from projects where schedule is not null`
	projects := make([]*Project, 0)
	err := sqlscan.Select(ctx, store.rdb, &projects, query)
	return projects, err
}
