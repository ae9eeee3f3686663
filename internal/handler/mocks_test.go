package handler

import (
	"context"

	"github.com/MohamedRoshdi/devflow-sub024/internal/service"
	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/stretchr/testify/mock"
)

type mockPipelineService struct {
	mock.Mock
	broadcaster *service.Broadcaster
}

func newMockPipelineService() *mockPipelineService {
	return &mockPipelineService{broadcaster: service.NewBroadcaster(nil)}
}

func (m *mockPipelineService) CreateProject(
	ctx context.Context,
	p *store.Project,
) (*store.Project, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Project), args.Error(1)
}

func (m *mockPipelineService) UpdateProject(ctx context.Context, p *store.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPipelineService) UpdateProjectSchedule(
	ctx context.Context,
	id int64,
	schedule, branch *string,
) error {
	args := m.Called(ctx, id, schedule, branch)
	return args.Error(0)
}

func (m *mockPipelineService) DeleteProject(ctx context.Context, projectID int64) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func (m *mockPipelineService) GetProjectByID(
	ctx context.Context,
	projectID int64,
) (*store.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Project), args.Error(1)
}

func (m *mockPipelineService) GetProjectBySlug(
	ctx context.Context,
	slug string,
) (*store.Project, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Project), args.Error(1)
}

func (m *mockPipelineService) ListProjects(ctx context.Context) ([]*store.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Project), args.Error(1)
}

func (m *mockPipelineService) ListProjectStages(
	ctx context.Context,
	projectID int64,
) ([]*store.Stage, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Stage), args.Error(1)
}

func (m *mockPipelineService) ImportStages(
	ctx context.Context,
	projectID int64,
	data []byte,
) ([]*store.Stage, error) {
	args := m.Called(ctx, projectID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Stage), args.Error(1)
}

func (m *mockPipelineService) ListProjectDeployments(
	ctx context.Context,
	projectID int64,
) ([]store.Deployment, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Deployment), args.Error(1)
}

func (m *mockPipelineService) TriggerRun(
	ctx context.Context,
	projectID int64,
	source store.TriggerSource,
	branch, commitHash string,
) (*store.Run, error) {
	args := m.Called(ctx, projectID, source, branch, commitHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *mockPipelineService) GetRunByID(
	ctx context.Context,
	runID int64,
) (*store.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *mockPipelineService) ListProjectRunsPaginated(
	ctx context.Context,
	id, limit, offset int64,
) ([]store.Run, error) {
	args := m.Called(ctx, id, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *mockPipelineService) GetProjectRunCount(
	ctx context.Context,
	id int64,
) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPipelineService) ListRunStageRuns(
	ctx context.Context,
	runID int64,
) ([]store.StageRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.StageRun), args.Error(1)
}

func (m *mockPipelineService) CancelRun(ctx context.Context, runID int64) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *mockPipelineService) RetryRun(
	ctx context.Context,
	runID int64,
) (*store.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *mockPipelineService) RollbackProject(
	ctx context.Context,
	projectID int64,
	fromRunID *int64,
) (*store.Run, error) {
	args := m.Called(ctx, projectID, fromRunID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *mockPipelineService) DeleteRun(ctx context.Context, runID int64) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *mockPipelineService) Broadcaster() *service.Broadcaster {
	return m.broadcaster
}
