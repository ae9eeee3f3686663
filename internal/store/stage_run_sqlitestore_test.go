package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type stageRunSQLiteStoreSuite struct {
	stageRunStore *StageRunSQLiteStore
	db            *sql.DB
	project       *Project
	stage         *Stage
	run           *Run
	suite.Suite
}

func TestStageRunSQLiteStore(t *testing.T) {
	suite.Run(t, new(stageRunSQLiteStoreSuite))
}

func (suite *stageRunSQLiteStoreSuite) SetupSuite() {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		log.Fatal(err)
	}
	suite.db = db
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		log.Fatal(err)
	}

	RunMigrations(db, "../../migrations")

	suite.stageRunStore = NewStageRunSQLiteStore(db, db)
	projectStore := NewProjectSQLiteStore(db, db)
	p, err := projectStore.CreateProject(
		context.Background(),
		&Project{
			Slug:       "stage-run-project",
			Name:       "stagerunproject",
			Repository: "git@github.com:acme/web-app.git",
			Branch:     "main",
			Provider:   ProviderCustom,
		},
	)
	if err != nil {
		log.Fatal(err)
	}
	suite.project = p
	stageStore := NewStageSQLiteStore(db, db)
	s, err := stageStore.CreateStage(
		context.Background(),
		p.ProjectID,
		"build",
		PhasePreDeploy,
		1,
		"make build",
		true,
		false,
		120,
		"",
	)
	if err != nil {
		log.Fatal(err)
	}
	suite.stage = s
	runStore := NewRunSQLiteStore(db, db)
	r, err := runStore.CreateRun(
		context.Background(), p.ProjectID, TriggerManual, "main", "", nil,
	)
	if err != nil {
		log.Fatal(err)
	}
	suite.run = r
}

func (suite *stageRunSQLiteStoreSuite) TearDownSuite() {
	_ = suite.db.Close()
}

func (suite *stageRunSQLiteStoreSuite) TestStageRunSQLiteStore_CreateStageRun() {
	suite.Run("success - stage run created pending", func() {
		// act
		sr, err := suite.stageRunStore.CreateStageRun(
			context.Background(), suite.run.RunID, suite.stage.StageID, suite.stage.Name,
		)

		// assert
		suite.NoError(err)
		suite.NotNil(sr)
		suite.Equal(StageStatusPending, sr.Status)
		suite.Equal(suite.stage.Name, sr.StageName)
	})
	suite.Run("failure - invalid run id", func() {
		// act
		sr, err := suite.stageRunStore.CreateStageRun(
			context.Background(), 918273, suite.stage.StageID, suite.stage.Name,
		)

		// assert
		suite.Error(err)
		var sqliteErr *sqlite.Error
		ok := errors.As(err, &sqliteErr)
		suite.True(ok)
		suite.Equal(sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqliteErr.Code())
		suite.Nil(sr)
	})
}

func (suite *stageRunSQLiteStoreSuite) TestStageRunSQLiteStore_UpdateStageRunStatus() {
	suite.Run("success - transitioned record is persisted", func() {
		// arrange
		sr, err := suite.stageRunStore.CreateStageRun(
			context.Background(), suite.run.RunID, suite.stage.StageID, suite.stage.Name,
		)
		suite.NoError(err)
		suite.NoError(sr.MarkRunning(time.Now().UTC()))
		suite.NoError(sr.MarkFailed(time.Now().UTC(), "command 'make build' exited with status 2"))

		// act
		err = suite.stageRunStore.UpdateStageRunStatus(context.Background(), sr)

		// assert
		suite.NoError(err)
		found, err := suite.stageRunStore.ReadStageRunByID(context.Background(), sr.StageRunID)
		suite.NoError(err)
		suite.Equal(StageStatusFailed, found.Status)
		suite.NotNil(found.Error)
		suite.NotNil(found.StartedOn)
		suite.NotNil(found.EndedOn)
	})
}

func (suite *stageRunSQLiteStoreSuite) TestStageRunSQLiteStore_AppendStageRunOutput() {
	suite.Run("success - output appended in order", func() {
		// arrange
		sr, err := suite.stageRunStore.CreateStageRun(
			context.Background(), suite.run.RunID, suite.stage.StageID, suite.stage.Name,
		)
		suite.NoError(err)

		// act
		err = suite.stageRunStore.AppendStageRunOutput(
			context.Background(), sr.StageRunID, "compiling\n",
		)
		suite.NoError(err)
		err = suite.stageRunStore.AppendStageRunOutput(
			context.Background(), sr.StageRunID, "done\n",
		)

		// assert
		suite.NoError(err)
		found, err := suite.stageRunStore.ReadStageRunByID(context.Background(), sr.StageRunID)
		suite.NoError(err)
		suite.NotNil(found.Output)
		suite.Equal("compiling\ndone\n", *found.Output)
	})
}

func (suite *stageRunSQLiteStoreSuite) TestStageRunSQLiteStore_ListRunStageRuns() {
	suite.Run("success - stage runs listed for the run", func() {
		// arrange
		sr, err := suite.stageRunStore.CreateStageRun(
			context.Background(), suite.run.RunID, suite.stage.StageID, suite.stage.Name,
		)
		suite.NoError(err)

		// act
		stageRuns, err := suite.stageRunStore.ListRunStageRuns(
			context.Background(), suite.run.RunID,
		)

		// assert
		suite.NoError(err)
		suite.NotEmpty(stageRuns)
		found := false
		for i := range stageRuns {
			if stageRuns[i].StageRunID == sr.StageRunID {
				found = true
			}
		}
		suite.True(found)
	})
}
