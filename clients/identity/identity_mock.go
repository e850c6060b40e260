package identity

import (
	"context"

	"github.com/stretchr/testify/mock"

	"faasrhub/clients"
)

// MockIdentityClient is a mock implementation of the clients.IdentityClient
// interface
type MockIdentityClient struct {
	mock.Mock
}

// GetUser mocks resolving a user from a bearer token
func (m *MockIdentityClient) GetUser(ctx context.Context, accessToken string) (*clients.IdentityUser, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.IdentityUser), args.Error(1)
}
