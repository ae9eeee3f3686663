package store

import (
	"context"
	"time"
)

type DeploymentStatus string

const (
	DeploymentPending DeploymentStatus = "pending"
	DeploymentSuccess DeploymentStatus = "success"
	DeploymentFailed  DeploymentStatus = "failed"
)

// Deployment records one attempt to put a commit on a project's server. Runs
// hold a weak back-reference to it for rollback lineage.
type Deployment struct {
	DeploymentID        int64
	DeploymentProjectID int64
	CommitHash          string
	Branch              string
	TriggerSource       TriggerSource
	Status              DeploymentStatus
	RunID               *int64
	CreatedOn           time.Time
}

type DeploymentStore interface {
	CreateDeployment(
		context.Context,
		int64,
		string,
		string,
		TriggerSource,
		*int64,
	) (*Deployment, error)
	ReadDeploymentByID(context.Context, int64) (*Deployment, error)
	UpdateDeploymentStatus(context.Context, int64, DeploymentStatus) error
	ReadLastSuccessfulDeploymentBefore(context.Context, int64, int64) (*Deployment, error)
	ListProjectDeployments(context.Context, int64) ([]Deployment, error)
}
