package models

import (
	"time"
)

type ForkStatus string

const (
	ForkStatusPending ForkStatus = "pending"
	ForkStatusExists  ForkStatus = "exists"
	ForkStatusCreated ForkStatus = "created"
	ForkStatusFailed  ForkStatus = "failed"
)

// Fork describes a user's copy of the workflow template repository. It is
// derived from a live GitHub query each time, never cached or persisted.
type Fork struct {
	Owner         string     `json:"owner"`
	RepoName      string     `json:"repo_name"`
	ForkURL       string     `json:"fork_url"`
	Status        ForkStatus `json:"status"`
	DefaultBranch string     `json:"default_branch"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}
