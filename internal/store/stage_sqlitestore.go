package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type StageSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewStageSQLiteStore(rdb, rwdb *sql.DB) *StageSQLiteStore {
	return &StageSQLiteStore{rdb, rwdb}
}

func (store *StageSQLiteStore) CreateStage(
	ctx context.Context,
	projectID int64,
	name string,
	phase Phase,
	position int64,
	commands string,
	enabled, continueOnFailure bool,
	timeoutSeconds int64,
	artifacts string,
) (*Stage, error) {
	s := &Stage{
		StageProjectID:    projectID,
		Name:              name,
		Phase:             phase,
		Position:          position,
		Commands:          commands,
		Enabled:           enabled,
		ContinueOnFailure: continueOnFailure,
		TimeoutSeconds:    timeoutSeconds,
		Artifacts:         artifacts,
	}
	query := `insert into stages (
		stage_project_id,
		name,
		phase,
		position,
		commands,
		enabled,
		continue_on_failure,
		timeout_seconds,
		artifacts
	)
	values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	returning stage_id`
	if err := sqlscan.Get(
		ctx, store.rwdb, s, query,
		s.StageProjectID,
		s.Name,
		s.Phase,
		s.Position,
		s.Commands,
		s.Enabled,
		s.ContinueOnFailure,
		s.TimeoutSeconds,
		s.Artifacts,
	); err != nil {
		return nil, err
	}
	return s, nil
}

func (store *StageSQLiteStore) ReadStageByID(ctx context.Context, id int64) (*Stage, error) {
	s := &Stage{StageID: id}
	query := `select * from stages where stage_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, s, query, s.StageID); err != nil {
		return nil, err
	}
	return s, nil
}

func (store *StageSQLiteStore) UpdateStage(ctx context.Context, s *Stage) error {
	query := `update stages
	set name = $1,
		phase = $2,
		position = $3,
		commands = $4,
		enabled = $5,
		continue_on_failure = $6,
		timeout_seconds = $7,
		artifacts = $8
	where stage_id = $9`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		s.Name,
		s.Phase,
		s.Position,
		s.Commands,
		s.Enabled,
		s.ContinueOnFailure,
		s.TimeoutSeconds,
		s.Artifacts,
		s.StageID,
	)
	return err
}

func (store *StageSQLiteStore) DeleteStage(ctx context.Context, id int64) error {
	query := `delete from stages where stage_id = $1`
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *StageSQLiteStore) ListProjectStages(
	ctx context.Context,
	projectID int64,
) ([]*Stage, error) {
	query := `select * from stages
	where stage_project_id = $1
	order by phase asc, position asc`
	stages := make([]*Stage, 0)
	err := sqlscan.Select(ctx, store.rdb, &stages, query, projectID)
	return stages, err
}

func (store *StageSQLiteStore) ListEnabledProjectStages(
	ctx context.Context,
	projectID int64,
) ([]*Stage, error) {
	query := `select * from stages
	where stage_project_id = $1
	and enabled = 1
	order by position asc`
	stages := make([]*Stage, 0)
	err := sqlscan.Select(ctx, store.rdb, &stages, query, projectID)
	return stages, err
}

func (store *StageSQLiteStore) DeleteProjectStages(
	ctx context.Context,
	projectID int64,
) error {
	query := `delete from stages where stage_project_id = $1`
	_, err := store.rwdb.ExecContext(ctx, query, projectID)
	return err
}
