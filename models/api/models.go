package api

import (
	"time"
)

// UserModel is the session identity returned to the frontend.
type UserModel struct {
	Login          string `json:"login"`
	UserID         int64  `json:"userId,omitempty"`
	InstallationID string `json:"installationId"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
}

// ForkModel is the fork descriptor returned to the frontend.
type ForkModel struct {
	Owner         string     `json:"owner"`
	RepoName      string     `json:"repoName"`
	ForkURL       string     `json:"forkUrl"`
	Status        string     `json:"status"`
	DefaultBranch string     `json:"defaultBranch"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// CallbackResponse is returned after a successful installation callback.
type CallbackResponse struct {
	Success bool      `json:"success"`
	User    UserModel `json:"user"`
	Fork    ForkModel `json:"fork"`
}

// SessionResponse reports whether the caller holds a valid session.
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	User          *UserModel `json:"user,omitempty"`
}

// LogoutResponse acknowledges that the session cookie was cleared.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// UploadResponse is returned after a workflow file upload. Run details are
// best-effort and omitted when the dispatched run could not be resolved.
type UploadResponse struct {
	Success        bool   `json:"success"`
	FileName       string `json:"fileName"`
	CommitSHA      string `json:"commitSha"`
	WorkflowRunID  int64  `json:"workflowRunId,omitempty"`
	WorkflowRunURL string `json:"workflowRunUrl,omitempty"`
}

// StatusResponse reports the state of the most recent registration run.
type StatusResponse struct {
	FileName       string     `json:"fileName"`
	Status         string     `json:"status"`
	WorkflowRunID  int64      `json:"workflowRunId"`
	WorkflowRunURL string     `json:"workflowRunUrl"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	TriggeredAt    *time.Time `json:"triggeredAt"`
	CompletedAt    *time.Time `json:"completedAt"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ErrorResponse is the uniform error payload. Details carries the full list
// of violations for validation failures.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
