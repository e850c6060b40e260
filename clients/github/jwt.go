package github

import (
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// appTokenBuffer is how long before expiry a cached app JWT is discarded.
// GitHub app JWTs live ten minutes, so a two minute buffer keeps plenty of
// reuse while never presenting a token about to lapse mid-request.
const appTokenBuffer = 2 * time.Minute

// appJWTSigner mints and caches the RS256 JWTs used to authenticate as the
// GitHub App itself (as opposed to an installation).
type appJWTSigner struct {
	appID      string
	privateKey *rsa.PrivateKey

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func newAppJWTSigner(appID, privateKeyPEM string) (*appJWTSigner, error) {
	if appID == "" {
		return nil, fmt.Errorf("app ID cannot be empty")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse app private key: %w", err)
	}
	return &appJWTSigner{appID: appID, privateKey: key}, nil
}

// Token returns a signed app JWT, reusing the cached one until it nears
// expiry.
func (s *appJWTSigner) Token() (string, error) {
	s.mu.RLock()
	if s.token != "" && time.Now().Before(s.expiresAt.Add(-appTokenBuffer)) {
		token := s.token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if s.token != "" && time.Now().Before(s.expiresAt.Add(-appTokenBuffer)) {
		return s.token, nil
	}

	now := time.Now()
	expiresAt := now.Add(10 * time.Minute)
	claims := jwt.RegisteredClaims{
		// Backdate issuance to absorb clock drift between us and GitHub.
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    s.appID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign app JWT: %w", err)
	}

	s.token = signed
	s.expiresAt = expiresAt
	return signed, nil
}
