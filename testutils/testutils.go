package testutils

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"faasrhub/appctx"
	"faasrhub/metrics"
	"faasrhub/models"
)

// LoadTestEnv loads environment variables for tests from the usual locations.
// Missing files are fine - tests that need specific variables check for them
// themselves.
func LoadTestEnv() {
	_ = godotenv.Load("../.env.test") // From services/ directory
	_ = godotenv.Load(".env.test")    // From root directory
	_ = godotenv.Load()               // Default .env file
}

// NewTestSession builds a session with a unique user login so concurrent tests
// never collide on GitHub identifiers.
func NewTestSession() *models.Session {
	now := time.Now()
	return &models.Session{
		InstallationID: "12345678",
		UserLogin:      "test-user-" + uuid.New().String()[:8],
		UserID:         424242,
		AvatarURL:      "https://avatars.githubusercontent.com/u/424242",
		IssuedAt:       now,
		ExpiresAt:      now.Add(24 * time.Hour),
	}
}

// NewTestFork builds a fork record consistent with the given session.
func NewTestFork(session *models.Session, repoName string) *models.Fork {
	createdAt := time.Now().Add(-time.Hour)
	return &models.Fork{
		Owner:         session.UserLogin,
		RepoName:      repoName,
		ForkURL:       "https://github.com/" + session.UserLogin + "/" + repoName,
		Status:        models.ForkStatusExists,
		DefaultBranch: "main",
		CreatedAt:     &createdAt,
	}
}

// NewTestCollector builds a metrics collector backed by a throwaway registry.
func NewTestCollector() *metrics.Collector {
	return metrics.NewCollector(prometheus.NewRegistry())
}

// CreateTestContext creates a context with the given session set for testing
func CreateTestContext(session *models.Session) context.Context {
	ctx := context.Background()
	return appctx.SetSession(ctx, session)
}
