package testutil

import (
	"context"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockProjectStore struct {
	mock.Mock
}

func (m *MockProjectStore) CreateProject(
	ctx context.Context,
	p *store.Project,
) (*store.Project, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Project), args.Error(1)
}

func (m *MockProjectStore) ReadProjectByID(
	ctx context.Context,
	id int64,
) (*store.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Project), args.Error(1)
}

func (m *MockProjectStore) ReadProjectBySlug(
	ctx context.Context,
	slug string,
) (*store.Project, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Project), args.Error(1)
}

func (m *MockProjectStore) ReadProjectRunData(
	ctx context.Context,
	id int64,
) (*store.RunData, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.RunData), args.Error(1)
}

func (m *MockProjectStore) UpdateProject(ctx context.Context, p *store.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProjectStore) UpdateProjectSchedule(
	ctx context.Context,
	id int64,
	schedule, branch, jobID *string,
) error {
	args := m.Called(ctx, id, schedule, branch, jobID)
	return args.Error(0)
}

func (m *MockProjectStore) UpdateProjectScheduleJobID(
	ctx context.Context,
	id int64,
	jobID *string,
) error {
	args := m.Called(ctx, id, jobID)
	return args.Error(0)
}

func (m *MockProjectStore) DeleteProject(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectStore) ListProjects(ctx context.Context) ([]*store.Project, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*store.Project), args.Error(1)
}

func (m *MockProjectStore) ListScheduledProjects(ctx context.Context) ([]*store.Project, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*store.Project), args.Error(1)
}
