package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"faasrhub/appctx"
	"faasrhub/clients"
	"faasrhub/models"
	"faasrhub/services"
)

// bearerSessionTTL is nominal - a session resolved from a bearer token lives
// only for the request it authenticated, the token's own expiry governs.
const bearerSessionTTL = time.Hour

// SessionAuthMiddleware authenticates requests from the signed session cookie,
// falling back to a bearer token validated against the identity backend when
// one is configured.
type SessionAuthMiddleware struct {
	sessionsService services.SessionsService
	identityClient  clients.IdentityClient
}

// NewSessionAuthMiddleware creates a new authentication middleware instance.
// identityClient may be nil, which disables the bearer token path.
func NewSessionAuthMiddleware(
	sessionsService services.SessionsService,
	identityClient clients.IdentityClient,
) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		sessionsService: sessionsService,
		identityClient:  identityClient,
	}
}

// WithAuth wraps an HTTP handler with session authentication
func (m *SessionAuthMiddleware) WithAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("🔐 Authentication middleware processing request from %s", r.RemoteAddr)

		session, ok := m.resolveSession(r)
		if !ok {
			log.Printf("❌ No valid session found")
			m.writeErrorResponse(w, "authentication required", http.StatusUnauthorized)
			return
		}

		log.Printf("✅ User authenticated successfully: %s", session.UserLogin)
		ctx := appctx.SetSession(r.Context(), session)
		next(w, r.WithContext(ctx))
	}
}

// WithOptionalAuth resolves a session when one is present but lets the request
// through either way. Handlers that report auth state rather than require it
// use this.
func (m *SessionAuthMiddleware) WithOptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if session, ok := m.resolveSession(r); ok {
			r = r.WithContext(appctx.SetSession(r.Context(), session))
		}
		next(w, r)
	}
}

// resolveSession tries the cookie path first, then the bearer path. Both
// collapse every failure mode to "no session" - callers never learn whether a
// token was expired, tampered or absent.
func (m *SessionAuthMiddleware) resolveSession(r *http.Request) (*models.Session, bool) {
	if token, exists := m.sessionsService.ExtractFromCookie(r.Header.Get("Cookie")).Get(); exists {
		if session, valid := m.sessionsService.Validate(token).Get(); valid {
			return session, true
		}
		log.Printf("⚠️ Session cookie present but not valid")
	}

	if m.identityClient == nil {
		return nil, false
	}

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}
	accessToken := strings.TrimPrefix(authHeader, "Bearer ")
	if accessToken == "" {
		return nil, false
	}

	user, err := m.identityClient.GetUser(r.Context(), accessToken)
	if err != nil {
		log.Printf("❌ Identity backend rejected bearer token: %v", err)
		return nil, false
	}

	session, err := sessionFromIdentityUser(user)
	if err != nil {
		log.Printf("❌ Identity user cannot be mapped to a session: %v", err)
		return nil, false
	}
	return session, true
}

// sessionFromIdentityUser builds a request-scoped session from the GitHub
// metadata the frontend stored on the identity record at sign-in time.
func sessionFromIdentityUser(user *clients.IdentityUser) (*models.Session, error) {
	meta := user.UserMetadata
	if meta.InstallationID == "" {
		return nil, fmt.Errorf("identity record carries no installation id")
	}
	if meta.UserName == "" {
		return nil, fmt.Errorf("identity record carries no GitHub user name")
	}

	var userID int64
	if meta.ProviderID != "" {
		if parsed, err := strconv.ParseInt(meta.ProviderID, 10, 64); err == nil {
			userID = parsed
		}
	}

	now := time.Now()
	return &models.Session{
		InstallationID: meta.InstallationID,
		UserLogin:      meta.UserName,
		UserID:         userID,
		AvatarURL:      meta.AvatarURL,
		IssuedAt:       now,
		ExpiresAt:      now.Add(bearerSessionTTL),
	}, nil
}

// writeErrorResponse writes a standardized error response
func (m *SessionAuthMiddleware) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("❌ Failed to encode error response: %v", err)
	}
}
