package appctx

import (
	"context"

	"faasrhub/models"
)

// Context keys for request-scoped values
type contextKey string

const SessionContextKey contextKey = "session"

const RequestIDContextKey contextKey = "request_id"

// SetSession adds the authenticated session to the request context
func SetSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

// GetSession extracts the authenticated session from the request context
func GetSession(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*models.Session)
	return session, ok
}

// SetRequestID adds the request ID to the request context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDContextKey, requestID)
}

// GetRequestID extracts the request ID from the request context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(RequestIDContextKey).(string)
	return requestID, ok
}
