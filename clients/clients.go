package clients

import (
	"context"

	"github.com/samber/mo"
)

// GitHubClient defines the GitHub REST operations the backend depends on.
// Implementations authenticate as a GitHub App and resolve short-lived
// installation tokens internally.
type GitHubClient interface {
	// Installation operations
	GetInstallation(ctx context.Context, installationID string) (*GitHubInstallation, error)
	CreateInstallationToken(ctx context.Context, installationID string) (*GitHubInstallationToken, error)

	// Repository operations
	GetRepository(ctx context.Context, installationID, owner, repo string) (mo.Option[*GitHubRepository], error)
	CreateFork(ctx context.Context, installationID, owner, repo string) error

	// Contents operations
	GetFileContent(ctx context.Context, installationID, owner, repo, path, ref string) (mo.Option[*GitHubFileContent], error)
	CreateOrUpdateFile(
		ctx context.Context,
		installationID, owner, repo, path string,
		req CreateOrUpdateFileRequest,
	) (*GitHubCommit, error)

	// Actions operations
	DispatchWorkflow(
		ctx context.Context,
		installationID, owner, repo, workflowFile, ref string,
		inputs map[string]string,
	) error
	ListWorkflowRuns(
		ctx context.Context,
		installationID, owner, repo, workflowFile string,
		perPage int,
	) ([]GitHubWorkflowRun, error)
	GetWorkflowRun(ctx context.Context, installationID, owner, repo string, runID int64) (*GitHubWorkflowRun, error)
}

// CreateOrUpdateFileRequest carries the inputs for a contents create-or-update
// call. SHA must be the current blob hash when updating an existing file and
// empty when creating a new one.
type CreateOrUpdateFileRequest struct {
	Message string
	Content []byte
	Branch  string
	SHA     string
}

// IdentityClient validates bearer tokens against the identity backend.
type IdentityClient interface {
	GetUser(ctx context.Context, accessToken string) (*IdentityUser, error)
}
