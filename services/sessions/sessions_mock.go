package sessions

import (
	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"faasrhub/models"
)

// MockSessionsService is a mock implementation of the SessionsService interface
type MockSessionsService struct {
	mock.Mock
}

func (m *MockSessionsService) Issue(
	installationID, userLogin string,
	userID int64,
	avatarURL string,
) (*models.Session, string, error) {
	args := m.Called(installationID, userLogin, userID, avatarURL)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*models.Session), args.String(1), args.Error(2)
}

func (m *MockSessionsService) Validate(token string) mo.Option[*models.Session] {
	args := m.Called(token)
	if args.Get(0) == nil {
		return mo.None[*models.Session]()
	}
	return args.Get(0).(mo.Option[*models.Session])
}

func (m *MockSessionsService) ExtractFromCookie(cookieHeader string) mo.Option[string] {
	args := m.Called(cookieHeader)
	if args.Get(0) == nil {
		return mo.None[string]()
	}
	return args.Get(0).(mo.Option[string])
}
