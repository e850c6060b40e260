package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"faasrhub/clients"
	"faasrhub/clients/github"
	"faasrhub/config"
	"faasrhub/models/api"
	"faasrhub/services/forks"
	"faasrhub/services/sessions"
	"faasrhub/testutils"
)

func newAuthTestHandler() (*AuthHTTPHandler, *github.MockGitHubClient, *sessions.MockSessionsService, *forks.MockForksService) {
	githubClient := &github.MockGitHubClient{}
	sessionsService := &sessions.MockSessionsService{}
	forksService := &forks.MockForksService{}
	cfg := &config.AppConfig{
		GitHubConfig: config.GitHubConfig{
			AppID:   "123456",
			AppSlug: "faasr-hub",
		},
	}
	return NewAuthHTTPHandler(cfg, githubClient, sessionsService, forksService), githubClient, sessionsService, forksService
}

func grantedPermissions() map[string]string {
	return map[string]string{
		"contents": "write",
		"actions":  "write",
		"metadata": "read",
	}
}

func testInstallation(login string) *clients.GitHubInstallation {
	return &clients.GitHubInstallation{
		ID: 87654321,
		Account: clients.GitHubAccount{
			ID:        583231,
			Login:     login,
			AvatarURL: "https://avatars.githubusercontent.com/u/583231",
			Type:      "User",
		},
		Permissions: grantedPermissions(),
	}
}

func sessionCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == sessions.CookieName {
			return cookie
		}
	}
	t.Fatalf("response carries no %s cookie", sessions.CookieName)
	return nil
}

func TestHandleInstall(t *testing.T) {
	t.Run("RedirectsToInstallationPage", func(t *testing.T) {
		handler, _, _, _ := newAuthTestHandler()

		recorder := httptest.NewRecorder()
		handler.HandleInstall(recorder, httptest.NewRequest(http.MethodGet, "/auth/install", nil))

		assert.Equal(t, http.StatusFound, recorder.Code)
		assert.Equal(t, "https://github.com/apps/faasr-hub/installations/new", recorder.Header().Get("Location"))
	})

	t.Run("MissingAppSlugIsConfigurationError", func(t *testing.T) {
		handler, _, _, _ := newAuthTestHandler()
		handler.config.GitHubConfig.AppSlug = ""

		recorder := httptest.NewRecorder()
		handler.HandleInstall(recorder, httptest.NewRequest(http.MethodGet, "/auth/install", nil))

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestHandleCallback(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, githubClient, sessionsService, forksService := newAuthTestHandler()

		session := testutils.NewTestSession()
		session.InstallationID = "87654321"
		session.UserLogin = "octocat"
		session.UserID = 583231
		fork := testutils.NewTestFork(session, "FaaSr-workflow")

		githubClient.On("GetInstallation", mock.Anything, "87654321").
			Return(testInstallation("octocat"), nil)
		sessionsService.On("Issue", "87654321", "octocat", int64(583231), "https://avatars.githubusercontent.com/u/583231").
			Return(session, "signed-session-token", nil)
		forksService.On("EnsureFork", mock.Anything, session).Return(fork, nil)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/auth/callback?installation_id=87654321", nil)
		handler.HandleCallback(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)

		var payload api.CallbackResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
		assert.True(t, payload.Success)
		assert.Equal(t, "octocat", payload.User.Login)
		assert.Equal(t, "87654321", payload.User.InstallationID)
		assert.Equal(t, "FaaSr-workflow", payload.Fork.RepoName)
		assert.Equal(t, "octocat", payload.Fork.Owner)

		cookie := sessionCookie(t, recorder)
		assert.Equal(t, "signed-session-token", cookie.Value)
		assert.Equal(t, "/", cookie.Path)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		assert.WithinDuration(t, session.ExpiresAt, cookie.Expires, time.Second)

		githubClient.AssertExpectations(t)
		sessionsService.AssertExpectations(t)
		forksService.AssertExpectations(t)
	})

	t.Run("MissingInstallationIDIsRejected", func(t *testing.T) {
		handler, githubClient, _, _ := newAuthTestHandler()

		recorder := httptest.NewRecorder()
		handler.HandleCallback(recorder, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		var payload api.ErrorResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
		assert.Equal(t, "installation_id query parameter is required", payload.Error)
		githubClient.AssertNotCalled(t, "GetInstallation", mock.Anything, mock.Anything)
	})

	t.Run("MissingPermissionsAreListed", func(t *testing.T) {
		handler, githubClient, sessionsService, _ := newAuthTestHandler()

		installation := testInstallation("octocat")
		installation.Permissions = map[string]string{
			"contents": "read",
			"metadata": "read",
		}
		githubClient.On("GetInstallation", mock.Anything, "87654321").Return(installation, nil)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/auth/callback?installation_id=87654321", nil)
		handler.HandleCallback(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		var payload api.ErrorResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
		assert.Len(t, payload.Details, 2)
		assert.Contains(t, payload.Details, "installation is missing the contents:write permission")
		assert.Contains(t, payload.Details, "installation is missing the actions:write permission")
		sessionsService.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("HigherPermissionLevelSatisfiesRequirement", func(t *testing.T) {
		handler, githubClient, sessionsService, forksService := newAuthTestHandler()

		installation := testInstallation("octocat")
		installation.Permissions = map[string]string{
			"contents": "write",
			"actions":  "write",
			"metadata": "write",
		}
		session := testutils.NewTestSession()
		githubClient.On("GetInstallation", mock.Anything, "87654321").Return(installation, nil)
		sessionsService.On("Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(session, "token", nil)
		forksService.On("EnsureFork", mock.Anything, session).
			Return(testutils.NewTestFork(session, "FaaSr-workflow"), nil)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/auth/callback?installation_id=87654321", nil)
		handler.HandleCallback(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("InstallationWithoutAccountIsRejected", func(t *testing.T) {
		handler, githubClient, _, _ := newAuthTestHandler()

		githubClient.On("GetInstallation", mock.Anything, "87654321").
			Return(testInstallation(""), nil)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/auth/callback?installation_id=87654321", nil)
		handler.HandleCallback(recorder, request)

		assert.Equal(t, http.StatusBadGateway, recorder.Code)
	})

	t.Run("InstallationLookupFailureIsBadGateway", func(t *testing.T) {
		handler, githubClient, _, _ := newAuthTestHandler()

		githubClient.On("GetInstallation", mock.Anything, "87654321").
			Return(nil, &github.APIError{StatusCode: 404, Message: "Not Found"})

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/auth/callback?installation_id=87654321", nil)
		handler.HandleCallback(recorder, request)

		assert.Equal(t, http.StatusBadGateway, recorder.Code)
	})

	t.Run("ForkFailurePropagates", func(t *testing.T) {
		handler, githubClient, sessionsService, forksService := newAuthTestHandler()

		session := testutils.NewTestSession()
		githubClient.On("GetInstallation", mock.Anything, "87654321").
			Return(testInstallation("octocat"), nil)
		sessionsService.On("Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(session, "token", nil)
		forksService.On("EnsureFork", mock.Anything, session).
			Return(nil, fmt.Errorf("fork was not ready after 30 attempts (30s elapsed)"))

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/auth/callback?installation_id=87654321", nil)
		handler.HandleCallback(recorder, request)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.Empty(t, recorder.Result().Cookies())
	})

	t.Run("UnconfiguredGitHubClientIsConfigurationError", func(t *testing.T) {
		handler, _, _, _ := newAuthTestHandler()
		handler.githubClient = nil

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/auth/callback?installation_id=87654321", nil)
		handler.HandleCallback(recorder, request)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestHandleSession(t *testing.T) {
	t.Run("ReportsAuthenticatedSession", func(t *testing.T) {
		handler, _, _, _ := newAuthTestHandler()
		session := testutils.NewTestSession()

		request := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
		request = request.WithContext(testutils.CreateTestContext(session))

		recorder := httptest.NewRecorder()
		handler.HandleSession(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)

		var payload api.SessionResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
		assert.True(t, payload.Authenticated)
		require.NotNil(t, payload.User)
		assert.Equal(t, session.UserLogin, payload.User.Login)
		assert.Equal(t, session.InstallationID, payload.User.InstallationID)
	})

	t.Run("ReportsAnonymousCaller", func(t *testing.T) {
		handler, _, _, _ := newAuthTestHandler()

		recorder := httptest.NewRecorder()
		handler.HandleSession(recorder, httptest.NewRequest(http.MethodGet, "/auth/session", nil))

		require.Equal(t, http.StatusOK, recorder.Code)

		var payload api.SessionResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
		assert.False(t, payload.Authenticated)
		assert.Nil(t, payload.User)
	})
}

func TestHandleLogout(t *testing.T) {
	handler, _, _, _ := newAuthTestHandler()

	recorder := httptest.NewRecorder()
	handler.HandleLogout(recorder, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var payload api.LogoutResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.True(t, payload.Success)

	cookie := sessionCookie(t, recorder)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestMissingPermissions(t *testing.T) {
	t.Run("FullGrantHasNoGaps", func(t *testing.T) {
		assert.Empty(t, missingPermissions(grantedPermissions()))
	})

	t.Run("EmptyGrantReportsEveryRequirement", func(t *testing.T) {
		missing := missingPermissions(map[string]string{})
		assert.Len(t, missing, len(requiredInstallationPermissions))
	})

	t.Run("ReadWhereWriteIsRequired", func(t *testing.T) {
		granted := grantedPermissions()
		granted["actions"] = "read"

		missing := missingPermissions(granted)
		require.Len(t, missing, 1)
		assert.Contains(t, missing[0], "actions:write")
	})

	t.Run("AdminExceedsWrite", func(t *testing.T) {
		granted := grantedPermissions()
		granted["contents"] = "admin"

		assert.Empty(t, missingPermissions(granted))
	})
}
