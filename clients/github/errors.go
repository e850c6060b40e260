package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError represents a non-success response from the GitHub REST API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("github api error: status %d: %s", e.StatusCode, e.Message)
}

// FriendlyMessage maps the upstream failure to a message suitable for end
// users. Unrecognized statuses fall through to the raw upstream message.
func (e *APIError) FriendlyMessage() string {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return "GitHub rate limit exceeded, please try again later"
	case e.StatusCode == http.StatusForbidden:
		return "GitHub denied access, check the app installation permissions"
	case e.StatusCode == http.StatusNotFound:
		return "GitHub resource not found"
	case e.StatusCode >= 500:
		return "GitHub is having issues, please try again later"
	default:
		return e.Message
	}
}

// AsAPIError unwraps err looking for an APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// newAPIError builds an APIError from a response body, extracting GitHub's
// "message" field when the body is JSON.
func newAPIError(statusCode int, body io.Reader) *APIError {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return &APIError{StatusCode: statusCode}
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return &APIError{StatusCode: statusCode, Message: payload.Message}
	}
	return &APIError{StatusCode: statusCode, Message: string(raw)}
}
