package store

import (
	"context"
	"time"
)

type RunStore interface {
	CreateRun(
		context.Context,
		int64,
		TriggerSource,
		string,
		string,
		*int64,
	) (*Run, error)
	ReadRunByID(context.Context, int64) (*Run, error)
	UpdateRunStartedOn(context.Context, int64, RunStatus, *time.Time) error
	UpdateRunEndedOn(context.Context, int64, RunStatus, *string, *string, *time.Time) error
	UpdateRunExternal(context.Context, int64, *string, *string) error
	UpdateRunDeploymentID(context.Context, int64, int64) error
	AppendRunOutput(context.Context, int64, string) error
	DeleteRun(context.Context, int64) error
	ListProjectRuns(context.Context, int64) ([]Run, error)
	ListLatestProjectRuns(context.Context, int64, int64) ([]Run, error)
	ListProjectRunsPaginated(context.Context, int64, int64, int64) ([]Run, error)
	CountProjectRuns(context.Context, int64) (int64, error)
}
