package store

import (
	"context"
	"database/sql"

	"github.com/MohamedRoshdi/devflow-sub024/internal"
	"github.com/georgysavva/scany/v2/sqlscan"
)

type StageRunSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewStageRunSQLiteStore(rdb, rwdb *sql.DB) *StageRunSQLiteStore {
	return &StageRunSQLiteStore{rdb, rwdb}
}

func (store *StageRunSQLiteStore) CreateStageRun(
	ctx context.Context,
	runID, stageID int64,
	stageName string,
) (*StageRun, error) {
	sr := &StageRun{
		StageRunRunID:   runID,
		StageRunStageID: stageID,
		StageName:       stageName,
		Status:          StageStatusPending,
	}
	query := `insert into stage_runs (
		stage_run_run_id,
		stage_run_stage_id,
		stage_name,
		status
	)
	values ($1, $2, $3, $4)
	returning stage_run_id, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, sr, query,
		sr.StageRunRunID,
		sr.StageRunStageID,
		sr.StageName,
		sr.Status,
	); err != nil {
		return nil, err
	}
	return sr, nil
}

func (store *StageRunSQLiteStore) ReadStageRunByID(
	ctx context.Context,
	id int64,
) (*StageRun, error) {
	sr := &StageRun{StageRunID: id}
	query := "select * from stage_runs where stage_run_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, sr, query, sr.StageRunID); err != nil {
		return nil, err
	}
	return sr, nil
}

// UpdateStageRunStatus persists the status, error and timestamps of a stage
// run whose in-memory record already went through a Mark* transition.
func (store *StageRunSQLiteStore) UpdateStageRunStatus(
	ctx context.Context,
	sr *StageRun,
) error {
	var startedOn, endedOn *string
	if sr.StartedOn != nil {
		s := sr.StartedOn.Format(internal.DBTimestampLayout)
		startedOn = &s
	}
	if sr.EndedOn != nil {
		s := sr.EndedOn.Format(internal.DBTimestampLayout)
		endedOn = &s
	}
	query := `update stage_runs
	set status = $1,
		error = $2,
		started_on = $3,
		ended_on = $4
	where stage_run_id = $5`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		sr.Status,
		sr.Error,
		startedOn,
		endedOn,
		sr.StageRunID,
	)
	return err
}

func (store *StageRunSQLiteStore) AppendStageRunOutput(
	ctx context.Context,
	id int64,
	out string,
) error {
	tx, err := store.rwdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sr := &StageRun{StageRunID: id}
	readQuery := `select * from stage_runs where stage_run_id = $1`
	err = sqlscan.Get(ctx, tx, sr, readQuery, sr.StageRunID)
	if err != nil {
		return err
	}

	var existingOutput string
	if sr.Output != nil {
		existingOutput = *sr.Output
	}
	updateQuery := `update stage_runs
	set output = $1
	where stage_run_id = $2`
	_, err = tx.ExecContext(ctx, updateQuery, existingOutput+out, sr.StageRunID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (store *StageRunSQLiteStore) ListRunStageRuns(
	ctx context.Context,
	runID int64,
) ([]StageRun, error) {
	query := `select * from stage_runs
	where stage_run_run_id = $1
	order by created_on asc, stage_run_id asc`
	stageRuns := make([]StageRun, 0)
	err := sqlscan.Select(ctx, store.rdb, &stageRuns, query, runID)
	return stageRuns, err
}
