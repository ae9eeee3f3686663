package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type DeploymentSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewDeploymentSQLiteStore(rdb, rwdb *sql.DB) *DeploymentSQLiteStore {
	return &DeploymentSQLiteStore{rdb, rwdb}
}

func (store *DeploymentSQLiteStore) CreateDeployment(
	ctx context.Context,
	projectID int64,
	commitHash, branch string,
	triggerSource TriggerSource,
	runID *int64,
) (*Deployment, error) {
	d := &Deployment{
		DeploymentProjectID: projectID,
		CommitHash:          commitHash,
		Branch:              branch,
		TriggerSource:       triggerSource,
		Status:              DeploymentPending,
		RunID:               runID,
	}
	query := `insert into deployments (
		deployment_project_id,
		commit_hash,
		branch,
		trigger_source,
		status,
		run_id
	)
	values ($1, $2, $3, $4, $5, $6)
	returning deployment_id, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, d, query,
		d.DeploymentProjectID,
		d.CommitHash,
		d.Branch,
		d.TriggerSource,
		d.Status,
		d.RunID,
	); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeploymentSQLiteStore) ReadDeploymentByID(
	ctx context.Context,
	id int64,
) (*Deployment, error) {
	d := &Deployment{DeploymentID: id}
	query := `select * from deployments where deployment_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, d, query, d.DeploymentID); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeploymentSQLiteStore) UpdateDeploymentStatus(
	ctx context.Context,
	id int64,
	status DeploymentStatus,
) error {
	query := `update deployments
	set status = $1
	where deployment_id = $2`
	_, err := store.rwdb.ExecContext(ctx, query, status, id)
	return err
}

// ReadLastSuccessfulDeploymentBefore returns the most recent successful
// deployment for the project with an id strictly smaller than beforeID.
func (store *DeploymentSQLiteStore) ReadLastSuccessfulDeploymentBefore(
	ctx context.Context,
	projectID, beforeID int64,
) (*Deployment, error) {
	d := new(Deployment)
	query := `select * from deployments
	where deployment_project_id = $1
	and deployment_id < $2
	and status = $3
	order by deployment_id desc
	limit 1`
	if err := sqlscan.Get(
		ctx, store.rdb, d, query,
		projectID, beforeID, DeploymentSuccess,
	); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeploymentSQLiteStore) ListProjectDeployments(
	ctx context.Context,
	projectID int64,
) ([]Deployment, error) {
	query := `select * from deployments
	where deployment_project_id = $1
	order by created_on desc`
	deployments := make([]Deployment, 0)
	err := sqlscan.Select(ctx, store.rdb, &deployments, query, projectID)
	return deployments, err
}
