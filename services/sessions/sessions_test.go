package sessions

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(ttl time.Duration) *SessionsService {
	return NewSessionsService(testSecret, ttl)
}

func TestIssue(t *testing.T) {
	t.Run("issues a signed token carrying the identity", func(t *testing.T) {
		service := newTestService(24 * time.Hour)

		session, token, err := service.Issue("42", "octocat", 7, "https://avatars.test/7")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		assert.Equal(t, "42", session.InstallationID)
		assert.Equal(t, "octocat", session.UserLogin)
		assert.Equal(t, int64(7), session.UserID)
		assert.Equal(t, "https://avatars.test/7", session.AvatarURL)
		assert.WithinDuration(t, time.Now(), session.IssuedAt, 5*time.Second)
		assert.WithinDuration(t, session.IssuedAt.Add(24*time.Hour), session.ExpiresAt, time.Second)
	})

	t.Run("fails with empty installation ID", func(t *testing.T) {
		service := newTestService(24 * time.Hour)

		_, _, err := service.Issue("", "octocat", 7, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "installation ID")
	})

	t.Run("fails with empty user login", func(t *testing.T) {
		service := newTestService(24 * time.Hour)

		_, _, err := service.Issue("42", "", 7, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "user login")
	})
}

func TestValidate(t *testing.T) {
	t.Run("round-trips an issued token", func(t *testing.T) {
		service := newTestService(24 * time.Hour)

		issued, token, err := service.Issue("42", "octocat", 7, "https://avatars.test/7")
		require.NoError(t, err)

		maybeSession := service.Validate(token)
		require.True(t, maybeSession.IsPresent())

		session := maybeSession.MustGet()
		assert.Equal(t, issued.InstallationID, session.InstallationID)
		assert.Equal(t, issued.UserLogin, session.UserLogin)
		assert.Equal(t, issued.UserID, session.UserID)
		assert.Equal(t, issued.AvatarURL, session.AvatarURL)
		assert.Equal(t, issued.ExpiresAt.Unix(), session.ExpiresAt.Unix())
	})

	t.Run("rejects empty token", func(t *testing.T) {
		service := newTestService(24 * time.Hour)
		assert.True(t, service.Validate("").IsAbsent())
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		service := newTestService(24 * time.Hour)
		assert.True(t, service.Validate("not.a.jwt").IsAbsent())
	})

	t.Run("rejects token signed with a different secret", func(t *testing.T) {
		service := newTestService(24 * time.Hour)
		other := NewSessionsService("another-secret-another-secret-32", 24*time.Hour)

		_, token, err := other.Issue("42", "octocat", 7, "")
		require.NoError(t, err)

		assert.True(t, service.Validate(token).IsAbsent())
	})

	t.Run("rejects tampered token", func(t *testing.T) {
		service := newTestService(24 * time.Hour)

		_, token, err := service.Issue("42", "octocat", 7, "")
		require.NoError(t, err)

		tampered := token[:len(token)-2] + "xx"
		assert.True(t, service.Validate(tampered).IsAbsent())
	})

	t.Run("rejects expired token", func(t *testing.T) {
		service := newTestService(-time.Minute)

		_, token, err := service.Issue("42", "octocat", 7, "")
		require.NoError(t, err)

		assert.True(t, service.Validate(token).IsAbsent())
	})

	t.Run("rejects token missing identity claims", func(t *testing.T) {
		service := newTestService(24 * time.Hour)

		claims := jwt.MapClaims{
			"user_login": "octocat",
			"iat":        time.Now().Unix(),
			"exp":        time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		assert.True(t, service.Validate(token).IsAbsent())
	})

	t.Run("rejects token without expiry", func(t *testing.T) {
		service := newTestService(24 * time.Hour)

		claims := jwt.MapClaims{
			"installation_id": "42",
			"user_login":      "octocat",
			"iat":             time.Now().Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		assert.True(t, service.Validate(token).IsAbsent())
	})
}

func TestExtractFromCookie(t *testing.T) {
	service := newTestService(24 * time.Hour)

	t.Run("extracts the session cookie", func(t *testing.T) {
		header := fmt.Sprintf("%s=token123", CookieName)
		maybeToken := service.ExtractFromCookie(header)
		require.True(t, maybeToken.IsPresent())
		assert.Equal(t, "token123", maybeToken.MustGet())
	})

	t.Run("extracts among multiple cookies", func(t *testing.T) {
		header := fmt.Sprintf("theme=dark; %s=token123; lang=en", CookieName)
		maybeToken := service.ExtractFromCookie(header)
		require.True(t, maybeToken.IsPresent())
		assert.Equal(t, "token123", maybeToken.MustGet())
	})

	t.Run("absent when header is empty", func(t *testing.T) {
		assert.True(t, service.ExtractFromCookie("").IsAbsent())
	})

	t.Run("absent when cookie is missing", func(t *testing.T) {
		assert.True(t, service.ExtractFromCookie("theme=dark; lang=en").IsAbsent())
	})

	t.Run("absent when cookie value is empty", func(t *testing.T) {
		header := fmt.Sprintf("%s=", CookieName)
		assert.True(t, service.ExtractFromCookie(header).IsAbsent())
	})
}
