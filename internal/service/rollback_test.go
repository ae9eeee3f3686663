package service

import (
	"context"
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/MohamedRoshdi/devflow-sub024/internal/util"
	"github.com/MohamedRoshdi/devflow-sub024/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRollbackController_PrepareRollback(t *testing.T) {
	t.Run("success - rollback run targets the previous successful deployment", func(t *testing.T) {
		// arrange
		runs := new(testutil.MockRunStore)
		deployments := new(testutil.MockDeploymentStore)
		fromRun := &store.Run{
			RunID:        9,
			RunProjectID: 1,
			Status:       store.StatusFailed,
			DeploymentID: util.AsPtr(int64(5)),
		}
		target := &store.Deployment{
			DeploymentID:        4,
			DeploymentProjectID: 1,
			CommitHash:          "commit-good",
			Branch:              "main",
			Status:              store.DeploymentSuccess,
		}
		rollbackRun := &store.Run{
			RunID:         10,
			RunProjectID:  1,
			TriggerSource: store.TriggerRollback,
			Branch:        "main",
			CommitHash:    "commit-good",
			Status:        store.StatusPending,
			PreviousRunID: &fromRun.RunID,
			CreatedOn:     time.Now().UTC(),
		}
		deployments.On(
			"ReadLastSuccessfulDeploymentBefore", context.Background(), int64(1), int64(5),
		).Return(target, nil)
		runs.On(
			"CreateRun",
			context.Background(),
			int64(1), store.TriggerRollback, "main", "commit-good", &fromRun.RunID,
		).Return(rollbackRun, nil)
		deployments.On(
			"CreateDeployment",
			context.Background(),
			int64(1), "commit-good", "main", store.TriggerRollback, &rollbackRun.RunID,
		).Return(&store.Deployment{
			DeploymentID:        6,
			DeploymentProjectID: 1,
			CommitHash:          "commit-good",
			Branch:              "main",
			TriggerSource:       store.TriggerRollback,
			Status:              store.DeploymentPending,
		}, nil)
		runs.On(
			"UpdateRunDeploymentID", context.Background(), rollbackRun.RunID, int64(6),
		).Return(nil)
		rc := NewRollbackController(runs, deployments)

		// act
		run, err := rc.PrepareRollback(context.Background(), 1, fromRun)

		// assert
		assert.NoError(t, err)
		assert.NotNil(t, run)
		assert.Equal(t, store.TriggerRollback, run.TriggerSource)
		assert.Equal(t, "commit-good", run.CommitHash)
		assert.Equal(t, int64(6), *run.DeploymentID)
		assert.Equal(t, fromRun.RunID, *run.PreviousRunID)
	})

	t.Run("success - latest deployment is the target when no run is given", func(t *testing.T) {
		// arrange
		runs := new(testutil.MockRunStore)
		deployments := new(testutil.MockDeploymentStore)
		target := &store.Deployment{
			DeploymentID:        3,
			DeploymentProjectID: 1,
			CommitHash:          "commit-good",
			Branch:              "main",
			Status:              store.DeploymentSuccess,
		}
		deployments.On(
			"ReadLastSuccessfulDeploymentBefore",
			context.Background(), int64(1), int64(math.MaxInt64),
		).Return(target, nil)
		runs.On(
			"CreateRun",
			context.Background(),
			int64(1), store.TriggerRollback, "main", "commit-good", (*int64)(nil),
		).Return(&store.Run{RunID: 11, RunProjectID: 1, Status: store.StatusPending}, nil)
		deployments.On(
			"CreateDeployment",
			mock.Anything, int64(1), "commit-good", "main", store.TriggerRollback, mock.Anything,
		).Return(&store.Deployment{DeploymentID: 7}, nil)
		runs.On(
			"UpdateRunDeploymentID", context.Background(), int64(11), int64(7),
		).Return(nil)
		rc := NewRollbackController(runs, deployments)

		// act
		run, err := rc.PrepareRollback(context.Background(), 1, nil)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, int64(7), *run.DeploymentID)
	})

	t.Run("failure - no successful deployment to roll back to", func(t *testing.T) {
		// arrange
		runs := new(testutil.MockRunStore)
		deployments := new(testutil.MockDeploymentStore)
		deployments.On(
			"ReadLastSuccessfulDeploymentBefore",
			context.Background(), int64(1), int64(math.MaxInt64),
		).Return(nil, sql.ErrNoRows)
		rc := NewRollbackController(runs, deployments)

		// act
		run, err := rc.PrepareRollback(context.Background(), 1, nil)

		// assert
		var nrt ErrNoRollbackTarget
		assert.ErrorAs(t, err, &nrt)
		assert.Equal(t, int64(1), nrt.ProjectID)
		assert.Nil(t, run)
		runs.AssertNotCalled(t, "CreateRun")
	})
}
