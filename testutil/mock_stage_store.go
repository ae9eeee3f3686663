package testutil

import (
	"context"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockStageStore struct {
	mock.Mock
}

func (m *MockStageStore) CreateStage(
	ctx context.Context,
	projectID int64,
	name string,
	phase store.Phase,
	position int64,
	commands string,
	enabled, continueOnFailure bool,
	timeoutSeconds int64,
	artifacts string,
) (*store.Stage, error) {
	args := m.Called(
		ctx, projectID, name, phase, position,
		commands, enabled, continueOnFailure, timeoutSeconds, artifacts,
	)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Stage), args.Error(1)
}

func (m *MockStageStore) ReadStageByID(ctx context.Context, id int64) (*store.Stage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Stage), args.Error(1)
}

func (m *MockStageStore) UpdateStage(ctx context.Context, s *store.Stage) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStageStore) DeleteStage(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStageStore) ListProjectStages(
	ctx context.Context,
	projectID int64,
) ([]*store.Stage, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]*store.Stage), args.Error(1)
}

func (m *MockStageStore) ListEnabledProjectStages(
	ctx context.Context,
	projectID int64,
) ([]*store.Stage, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]*store.Stage), args.Error(1)
}

func (m *MockStageStore) DeleteProjectStages(ctx context.Context, projectID int64) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}
