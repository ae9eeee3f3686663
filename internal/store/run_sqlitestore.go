package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal"
	"github.com/georgysavva/scany/v2/sqlscan"
)

type RunSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewRunSQLiteStore(rdb, rwdb *sql.DB) *RunSQLiteStore {
	return &RunSQLiteStore{rdb, rwdb}
}

func (store *RunSQLiteStore) CreateRun(
	ctx context.Context,
	projectID int64,
	triggerSource TriggerSource,
	branch, commitHash string,
	previousRunID *int64,
) (*Run, error) {
	r := &Run{
		RunProjectID:  projectID,
		TriggerSource: triggerSource,
		Branch:        branch,
		CommitHash:    commitHash,
		PreviousRunID: previousRunID,
		Status:        StatusPending,
	}
	query := `insert into runs (
		run_project_id,
		trigger_source,
		branch,
		commit_hash,
		previous_run_id,
		status
	)
	values ($1, $2, $3, $4, $5, $6)
	returning run_id, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, r, query,
		r.RunProjectID,
		r.TriggerSource,
		r.Branch,
		r.CommitHash,
		r.PreviousRunID,
		r.Status,
	); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) ReadRunByID(ctx context.Context, id int64) (*Run, error) {
	r := &Run{RunID: id}
	query := "select * from runs where run_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, r, query, r.RunID); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) UpdateRunStartedOn(
	ctx context.Context,
	id int64,
	status RunStatus,
	startedOn *time.Time,
) error {
	query := `update runs
	set status = $1,
		started_on = $2
	where run_id = $3`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		startedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

func (store *RunSQLiteStore) UpdateRunEndedOn(
	ctx context.Context,
	id int64,
	status RunStatus,
	errorMessage, artifacts *string,
	endedOn *time.Time,
) error {
	query := `update runs
	set status = $1,
		error = $2,
		artifacts = $3,
		ended_on = $4
	where run_id = $5`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		errorMessage,
		artifacts,
		endedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

func (store *RunSQLiteStore) UpdateRunExternal(
	ctx context.Context,
	id int64,
	externalID, externalURL *string,
) error {
	query := `update runs
	set external_id = $1,
		external_url = $2
	where run_id = $3`
	_, err := store.rwdb.ExecContext(ctx, query, externalID, externalURL, id)
	return err
}

func (store *RunSQLiteStore) UpdateRunDeploymentID(
	ctx context.Context,
	id, deploymentID int64,
) error {
	query := `update runs
	set deployment_id = $1
	where run_id = $2`
	_, err := store.rwdb.ExecContext(ctx, query, deploymentID, id)
	return err
}

func (store *RunSQLiteStore) AppendRunOutput(ctx context.Context, id int64, out string) error {
	tx, err := store.rwdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	r := &Run{RunID: id}
	readQuery := `select * from runs where run_id = $1`
	err = sqlscan.Get(ctx, tx, r, readQuery, r.RunID)
	if err != nil {
		return err
	}

	var existingOutput string
	if r.Output != nil {
		existingOutput = *r.Output
	}
	updateQuery := `update runs
	set output = $1
	where run_id = $2`
	_, err = tx.ExecContext(ctx, updateQuery, existingOutput+out, r.RunID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (store *RunSQLiteStore) DeleteRun(ctx context.Context, id int64) error {
	query := "delete from runs where run_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *RunSQLiteStore) ListProjectRuns(
	ctx context.Context,
	projectID int64,
) ([]Run, error) {
	query := `select * from runs
	where run_project_id = $1`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, projectID)
	return runs, err
}

func (store *RunSQLiteStore) ListLatestProjectRuns(
	ctx context.Context,
	projectID, limit int64,
) ([]Run, error) {
	query := `select * from runs
	where run_project_id = $1
	order by created_on desc limit $2`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, projectID, limit)
	return runs, err
}

func (store *RunSQLiteStore) ListProjectRunsPaginated(
	ctx context.Context,
	projectID, limit, offset int64,
) ([]Run, error) {
	query := `select
		r.run_id,
		r.run_project_id,
		r.trigger_source,
		r.branch,
		r.commit_hash,
		r.status,
		r.created_on,
		r.started_on,
		r.ended_on,
		p.slug as project_slug
	from runs r
	join projects p
	on r.run_project_id = p.project_id
	where run_project_id = $1
	order by created_on desc limit $2 offset $3`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, projectID, limit, offset)
	return runs, err
}

func (store *RunSQLiteStore) CountProjectRuns(
	ctx context.Context,
	projectID int64,
) (int64, error) {
	var count int64
	query := `select count(*) from runs where run_project_id = $1`
	err := sqlscan.Get(ctx, store.rdb, &count, query, projectID)
	return count, err
}
