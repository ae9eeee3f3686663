package testutil

import (
	"context"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) CreateRun(
	ctx context.Context,
	projectID int64,
	source store.TriggerSource,
	branch, commitHash string,
	previousRunID *int64,
) (*store.Run, error) {
	args := m.Called(ctx, projectID, source, branch, commitHash, previousRunID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockRunStore) ReadRunByID(
	ctx context.Context,
	id int64,
) (*store.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockRunStore) UpdateRunStartedOn(
	ctx context.Context,
	id int64,
	status store.RunStatus,
	startedOn *time.Time,
) error {
	args := m.Called(ctx, id, status, startedOn)
	return args.Error(0)
}

func (m *MockRunStore) UpdateRunEndedOn(
	ctx context.Context,
	id int64,
	status store.RunStatus,
	errorMessage, artifacts *string,
	endedOn *time.Time,
) error {
	args := m.Called(ctx, id, status, errorMessage, artifacts, endedOn)
	return args.Error(0)
}

func (m *MockRunStore) UpdateRunExternal(
	ctx context.Context,
	id int64,
	externalID, externalURL *string,
) error {
	args := m.Called(ctx, id, externalID, externalURL)
	return args.Error(0)
}

func (m *MockRunStore) UpdateRunDeploymentID(
	ctx context.Context,
	id, deploymentID int64,
) error {
	args := m.Called(ctx, id, deploymentID)
	return args.Error(0)
}

func (m *MockRunStore) AppendRunOutput(ctx context.Context, id int64, out string) error {
	args := m.Called(ctx, id, out)
	return args.Error(0)
}

func (m *MockRunStore) DeleteRun(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRunStore) ListProjectRuns(ctx context.Context, id int64) ([]store.Run, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockRunStore) ListLatestProjectRuns(
	ctx context.Context,
	id, limit int64,
) ([]store.Run, error) {
	args := m.Called(ctx, id, limit)
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockRunStore) ListProjectRunsPaginated(
	ctx context.Context,
	id, limit, offset int64,
) ([]store.Run, error) {
	args := m.Called(ctx, id, limit, offset)
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockRunStore) CountProjectRuns(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}
