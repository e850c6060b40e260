package clients

import (
	"time"
)

// GitHubAccount is the account shape embedded in repository and installation
// payloads.
type GitHubAccount struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	Type      string `json:"type"`
}

// GitHubRepository is the subset of the repos API payload the fork
// orchestrator needs. Parent is only populated on fork repositories.
type GitHubRepository struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	FullName      string            `json:"full_name"`
	Fork          bool              `json:"fork"`
	DefaultBranch string            `json:"default_branch"`
	HTMLURL       string            `json:"html_url"`
	CreatedAt     time.Time         `json:"created_at"`
	Owner         GitHubAccount     `json:"owner"`
	Parent        *GitHubRepository `json:"parent,omitempty"`
}

// GitHubInstallation describes a GitHub App installation and the permission
// set the account granted to it.
type GitHubInstallation struct {
	ID          int64             `json:"id"`
	Account     GitHubAccount     `json:"account"`
	Permissions map[string]string `json:"permissions"`
}

// GitHubInstallationToken is a short-lived API token minted for one
// installation.
type GitHubInstallationToken struct {
	Token       string            `json:"token"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Permissions map[string]string `json:"permissions"`
}

// GitHubFileContent is the blob metadata returned by the contents API.
type GitHubFileContent struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
	Size int    `json:"size"`
}

// GitHubCommit identifies the commit produced by a contents create-or-update
// call.
type GitHubCommit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
}

// GitHubWorkflowRun is one execution of an Actions workflow.
type GitHubWorkflowRun struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IdentityUser is the profile the identity backend resolves for a bearer
// token.
type IdentityUser struct {
	ID           string               `json:"id"`
	Email        string               `json:"email"`
	UserMetadata IdentityUserMetadata `json:"user_metadata"`
}

// IdentityUserMetadata carries the GitHub identity the frontend stored on the
// identity record at sign-in time.
type IdentityUserMetadata struct {
	UserName       string `json:"user_name"`
	InstallationID string `json:"installation_id"`
	AvatarURL      string `json:"avatar_url"`
	ProviderID     string `json:"provider_id"`
}
