package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faasrhub/clients/github"
	"faasrhub/core"
	"faasrhub/models/api"
)

func TestHandleHealth(t *testing.T) {
	recorder := httptest.NewRecorder()
	HandleHealth(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var health api.HealthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.0", health.Version)

	parsed, err := time.Parse(time.RFC3339, health.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantDetails int
	}{
		{
			name:        "ValidationErrorBecomes400WithDetails",
			err:         core.NewValidationError([]string{"first problem", "second problem"}),
			wantStatus:  http.StatusBadRequest,
			wantDetails: 2,
		},
		{
			name:       "WrappedValidationError",
			err:        fmt.Errorf("upload rejected: %w", core.NewValidationError([]string{"bad name"})),
			wantStatus: http.StatusBadRequest, wantDetails: 1,
		},
		{
			name:       "GitHubRateLimitBecomes502",
			err:        fmt.Errorf("failed to commit: %w", &github.APIError{StatusCode: 429}),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "GitHubForbiddenBecomes502",
			err:        &github.APIError{StatusCode: 403, Message: "forbidden"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "GitHubServerErrorBecomes502",
			err:        &github.APIError{StatusCode: 503},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "NotFoundBecomes404",
			err:        fmt.Errorf("no runs: %w", core.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "UnknownErrorBecomes500",
			err:        fmt.Errorf("something exploded"),
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			writeServiceError(recorder, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			var payload api.ErrorResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
			assert.NotEmpty(t, payload.Error)
			assert.Len(t, payload.Details, tt.wantDetails)
		})
	}
}
