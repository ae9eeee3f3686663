package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
)

func NewRollbackController(
	runs store.RunStore,
	deployments store.DeploymentStore,
) *RollbackController {
	return &RollbackController{
		runs:        runs,
		deployments: deployments,
	}
}

// RollbackController prepares rollback runs. A rollback re-runs the
// pipeline at the commit of an earlier successful deployment; it is an
// ordinary run with a rollback trigger source, not a special execution path.
type RollbackController struct {
	runs        store.RunStore
	deployments store.DeploymentStore
}

// PrepareRollback creates a pending rollback run for the project, targeting
// the last successful deployment made before fromRun's own deployment. The
// caller enqueues the returned run.
func (rc *RollbackController) PrepareRollback(
	ctx context.Context,
	projectID int64,
	fromRun *store.Run,
) (*store.Run, error) {
	beforeID := int64(math.MaxInt64)
	var previousRunID *int64
	if fromRun != nil {
		previousRunID = &fromRun.RunID
		if fromRun.DeploymentID != nil {
			beforeID = *fromRun.DeploymentID
		}
	}

	target, err := rc.deployments.ReadLastSuccessfulDeploymentBefore(ctx, projectID, beforeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRollbackTarget{ProjectID: projectID}
		}
		return nil, err
	}

	run, err := rc.runs.CreateRun(
		ctx,
		projectID,
		store.TriggerRollback,
		target.Branch,
		target.CommitHash,
		previousRunID,
	)
	if err != nil {
		return nil, err
	}

	deployment, err := rc.deployments.CreateDeployment(
		ctx,
		projectID,
		target.CommitHash,
		target.Branch,
		store.TriggerRollback,
		&run.RunID,
	)
	if err != nil {
		return nil, err
	}
	if err := rc.runs.UpdateRunDeploymentID(ctx, run.RunID, deployment.DeploymentID); err != nil {
		return nil, err
	}
	run.DeploymentID = &deployment.DeploymentID
	return run, nil
}
