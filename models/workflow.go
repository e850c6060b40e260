package models

import (
	"time"
)

type RegistrationStatus string

const (
	RegistrationStatusPending RegistrationStatus = "pending"
	RegistrationStatusRunning RegistrationStatus = "running"
	RegistrationStatusSuccess RegistrationStatus = "success"
	RegistrationStatusFailed  RegistrationStatus = "failed"
)

// RegistrationStatusFromRun maps a GitHub Actions status/conclusion pair onto
// the registration state machine. A completed run is successful only when its
// conclusion says so; any other conclusion is a failure and the conclusion
// text doubles as the error message.
func RegistrationStatusFromRun(status, conclusion string) (RegistrationStatus, string) {
	switch status {
	case "completed":
		if conclusion == "success" {
			return RegistrationStatusSuccess, ""
		}
		return RegistrationStatusFailed, conclusion
	case "in_progress":
		return RegistrationStatusRunning, ""
	default:
		return RegistrationStatusPending, ""
	}
}

// WorkflowRegistration is the view of the most recent registration run for a
// workflow file, derived from GitHub Actions on demand.
type WorkflowRegistration struct {
	WorkflowFileName string             `json:"workflow_file_name"`
	Status           RegistrationStatus `json:"status"`
	WorkflowRunID    int64              `json:"workflow_run_id,omitempty"`
	WorkflowRunURL   string             `json:"workflow_run_url,omitempty"`
	ErrorMessage     string             `json:"error_message,omitempty"`
	TriggeredAt      *time.Time         `json:"triggered_at,omitempty"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
}

// WorkflowUpload is the outcome of committing a workflow file into the fork
// and dispatching its registration run. Run details are best-effort and may
// be absent when the dispatched run was not yet enumerable.
type WorkflowUpload struct {
	FileName       string `json:"file_name"`
	CommitSHA      string `json:"commit_sha"`
	WorkflowRunID  int64  `json:"workflow_run_id,omitempty"`
	WorkflowRunURL string `json:"workflow_run_url,omitempty"`
}
