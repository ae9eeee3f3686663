package testutil

import (
	"context"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockServerService struct {
	mock.Mock
}

func (m *MockServerService) CreateServer(
	ctx context.Context,
	credentialID *int64,
	name, hostname, workspace, description, osType string,
) (*store.Server, error) {
	args := m.Called(ctx, credentialID, name, hostname, workspace, description, osType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Server), args.Error(1)
}

func (m *MockServerService) GetServerByID(
	ctx context.Context,
	id int64,
) (*store.Server, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Server), args.Error(1)
}

func (m *MockServerService) ListServers(ctx context.Context) ([]*store.Server, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*store.Server), args.Error(1)
}

func (m *MockServerService) UpdateServer(ctx context.Context, s *store.Server) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockServerService) DeleteServer(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockServerService) TestServerConnection(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
