package forks

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"faasrhub/models"
)

// MockForksService is a mock implementation of the ForksService interface
type MockForksService struct {
	mock.Mock
}

func (m *MockForksService) CheckFork(
	ctx context.Context,
	session *models.Session,
) (mo.Option[*models.Fork], error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return mo.None[*models.Fork](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.Fork]), args.Error(1)
}

func (m *MockForksService) CreateFork(ctx context.Context, session *models.Session) (*models.Fork, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fork), args.Error(1)
}

func (m *MockForksService) EnsureFork(ctx context.Context, session *models.Session) (*models.Fork, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fork), args.Error(1)
}
