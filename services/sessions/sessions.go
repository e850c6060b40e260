package sessions

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/mo"

	"faasrhub/models"
)

// CookieName is the cookie the signed session token travels in.
const CookieName = "faasr_session"

// sessionClaims is the JWT payload a session token carries. The GitHub
// identity fields ride alongside the registered issued-at/expiry claims.
type sessionClaims struct {
	InstallationID string `json:"installation_id"`
	UserLogin      string `json:"user_login"`
	UserID         int64  `json:"user_id,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	jwt.RegisteredClaims
}

// SessionsService implements the HMAC-signed session codec. Tokens are
// self-contained: issuing writes nothing anywhere, and validating reads
// nothing but the token.
type SessionsService struct {
	signingSecret []byte
	ttl           time.Duration
}

func NewSessionsService(signingSecret string, ttl time.Duration) *SessionsService {
	return &SessionsService{
		signingSecret: []byte(signingSecret),
		ttl:           ttl,
	}
}

// Issue signs a session token for the given GitHub identity. Issued-at and
// expiry are stamped here so every token carries the configured TTL.
func (s *SessionsService) Issue(
	installationID, userLogin string,
	userID int64,
	avatarURL string,
) (*models.Session, string, error) {
	log.Printf("📋 Starting to issue session for user: %s, installation: %s", userLogin, installationID)

	if installationID == "" {
		return nil, "", fmt.Errorf("installation ID cannot be empty")
	}
	if userLogin == "" {
		return nil, "", fmt.Errorf("user login cannot be empty")
	}

	now := time.Now()
	session := &models.Session{
		InstallationID: installationID,
		UserLogin:      userLogin,
		UserID:         userID,
		AvatarURL:      avatarURL,
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.ttl),
	}

	claims := sessionClaims{
		InstallationID: session.InstallationID,
		UserLogin:      session.UserLogin,
		UserID:         session.UserID,
		AvatarURL:      session.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	log.Printf("📋 Completed successfully - issued session for user: %s", userLogin)
	return session, token, nil
}

// Validate verifies a token's signature and expiry and reconstructs the
// session it encodes. Every failure mode - bad signature, expired, missing
// claims, malformed payload - collapses to None; callers never learn why.
func (s *SessionsService) Validate(token string) mo.Option[*models.Session] {
	if token == "" {
		return mo.None[*models.Session]()
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.signingSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired(), jwt.WithIssuedAt())
	if err != nil || !parsed.Valid {
		return mo.None[*models.Session]()
	}

	if claims.InstallationID == "" || claims.UserLogin == "" {
		return mo.None[*models.Session]()
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return mo.None[*models.Session]()
	}

	return mo.Some(&models.Session{
		InstallationID: claims.InstallationID,
		UserLogin:      claims.UserLogin,
		UserID:         claims.UserID,
		AvatarURL:      claims.AvatarURL,
		IssuedAt:       claims.IssuedAt.Time,
		ExpiresAt:      claims.ExpiresAt.Time,
	})
}

// ExtractFromCookie pulls the session token out of a Cookie request header.
func (s *SessionsService) ExtractFromCookie(cookieHeader string) mo.Option[string] {
	if cookieHeader == "" {
		return mo.None[string]()
	}

	cookies, err := http.ParseCookie(cookieHeader)
	if err != nil {
		return mo.None[string]()
	}

	for _, cookie := range cookies {
		if cookie.Name == CookieName && cookie.Value != "" {
			return mo.Some(cookie.Value)
		}
	}
	return mo.None[string]()
}
