package testutil

import (
	"context"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockDeploymentStore struct {
	mock.Mock
}

func (m *MockDeploymentStore) CreateDeployment(
	ctx context.Context,
	projectID int64,
	commitHash, branch string,
	source store.TriggerSource,
	runID *int64,
) (*store.Deployment, error) {
	args := m.Called(ctx, projectID, commitHash, branch, source, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Deployment), args.Error(1)
}

func (m *MockDeploymentStore) ReadDeploymentByID(
	ctx context.Context,
	id int64,
) (*store.Deployment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Deployment), args.Error(1)
}

func (m *MockDeploymentStore) UpdateDeploymentStatus(
	ctx context.Context,
	id int64,
	status store.DeploymentStatus,
) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockDeploymentStore) ReadLastSuccessfulDeploymentBefore(
	ctx context.Context,
	projectID, beforeID int64,
) (*store.Deployment, error) {
	args := m.Called(ctx, projectID, beforeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Deployment), args.Error(1)
}

func (m *MockDeploymentStore) ListProjectDeployments(
	ctx context.Context,
	projectID int64,
) ([]store.Deployment, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]store.Deployment), args.Error(1)
}
