package testutil

import (
	"context"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockStageRunStore struct {
	mock.Mock
}

func (m *MockStageRunStore) CreateStageRun(
	ctx context.Context,
	runID, stageID int64,
	stageName string,
) (*store.StageRun, error) {
	args := m.Called(ctx, runID, stageID, stageName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.StageRun), args.Error(1)
}

func (m *MockStageRunStore) ReadStageRunByID(
	ctx context.Context,
	id int64,
) (*store.StageRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.StageRun), args.Error(1)
}

func (m *MockStageRunStore) UpdateStageRunStatus(
	ctx context.Context,
	sr *store.StageRun,
) error {
	args := m.Called(ctx, sr)
	return args.Error(0)
}

func (m *MockStageRunStore) AppendStageRunOutput(
	ctx context.Context,
	id int64,
	out string,
) error {
	args := m.Called(ctx, id, out)
	return args.Error(0)
}

func (m *MockStageRunStore) ListRunStageRuns(
	ctx context.Context,
	runID int64,
) ([]store.StageRun, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).([]store.StageRun), args.Error(1)
}
