package middleware

import (
	"net/http"

	"faasrhub/appctx"
	"faasrhub/core"
)

// RequestIDHeader carries the request id back to the caller and through any
// proxies in front of the service.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware stamps every request with a ULID-based id. An id
// supplied by a trusted proxy is kept; otherwise a fresh one is minted. The
// id is stored on the request context and echoed in the response headers.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || !core.IsValidULID(requestID) {
			requestID = core.NewID("req")
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := appctx.SetRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
