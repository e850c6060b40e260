package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"faasrhub/clients/github"
	"faasrhub/config"
	"faasrhub/core"
	"faasrhub/models/api"
)

// writeJSONResponse writes a JSON payload with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes the uniform error payload. details carries the
// full violation list for validation failures.
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string, details ...string) {
	writeJSONResponse(w, statusCode, api.ErrorResponse{Error: message, Details: details})
}

// writeServiceError maps a service failure onto the API error taxonomy:
// collected validation errors become a 400 with details, GitHub failures
// become a 502 carrying a user-facing message, not-found becomes a 404 and
// everything else a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	if validationErr, ok := core.AsValidationError(err); ok {
		writeErrorResponse(w, http.StatusBadRequest, "validation failed", validationErr.Messages...)
		return
	}
	if apiErr, ok := github.AsAPIError(err); ok {
		writeErrorResponse(w, http.StatusBadGateway, apiErr.FriendlyMessage())
		return
	}
	if errors.Is(err, core.ErrNotFound) {
		writeErrorResponse(w, http.StatusNotFound, "resource not found")
		return
	}
	writeErrorResponse(w, http.StatusInternalServerError, "internal server error")
}

// HandleHealth reports service liveness
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, api.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
	})
}
