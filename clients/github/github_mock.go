package github

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"faasrhub/clients"
)

// MockGitHubClient is a mock implementation of the clients.GitHubClient
// interface
type MockGitHubClient struct {
	mock.Mock
}

// GetInstallation mocks fetching an installation
func (m *MockGitHubClient) GetInstallation(
	ctx context.Context,
	installationID string,
) (*clients.GitHubInstallation, error) {
	args := m.Called(ctx, installationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.GitHubInstallation), args.Error(1)
}

// CreateInstallationToken mocks minting an installation token
func (m *MockGitHubClient) CreateInstallationToken(
	ctx context.Context,
	installationID string,
) (*clients.GitHubInstallationToken, error) {
	args := m.Called(ctx, installationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.GitHubInstallationToken), args.Error(1)
}

// GetRepository mocks fetching a repository
func (m *MockGitHubClient) GetRepository(
	ctx context.Context,
	installationID, owner, repo string,
) (mo.Option[*clients.GitHubRepository], error) {
	args := m.Called(ctx, installationID, owner, repo)
	if args.Get(0) == nil {
		return mo.None[*clients.GitHubRepository](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*clients.GitHubRepository]), args.Error(1)
}

// CreateFork mocks the fork creation request
func (m *MockGitHubClient) CreateFork(ctx context.Context, installationID, owner, repo string) error {
	args := m.Called(ctx, installationID, owner, repo)
	return args.Error(0)
}

// GetFileContent mocks fetching blob metadata
func (m *MockGitHubClient) GetFileContent(
	ctx context.Context,
	installationID, owner, repo, path, ref string,
) (mo.Option[*clients.GitHubFileContent], error) {
	args := m.Called(ctx, installationID, owner, repo, path, ref)
	if args.Get(0) == nil {
		return mo.None[*clients.GitHubFileContent](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*clients.GitHubFileContent]), args.Error(1)
}

// CreateOrUpdateFile mocks committing file content
func (m *MockGitHubClient) CreateOrUpdateFile(
	ctx context.Context,
	installationID, owner, repo, path string,
	req clients.CreateOrUpdateFileRequest,
) (*clients.GitHubCommit, error) {
	args := m.Called(ctx, installationID, owner, repo, path, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.GitHubCommit), args.Error(1)
}

// DispatchWorkflow mocks triggering a workflow_dispatch event
func (m *MockGitHubClient) DispatchWorkflow(
	ctx context.Context,
	installationID, owner, repo, workflowFile, ref string,
	inputs map[string]string,
) error {
	args := m.Called(ctx, installationID, owner, repo, workflowFile, ref, inputs)
	return args.Error(0)
}

// ListWorkflowRuns mocks listing workflow runs
func (m *MockGitHubClient) ListWorkflowRuns(
	ctx context.Context,
	installationID, owner, repo, workflowFile string,
	perPage int,
) ([]clients.GitHubWorkflowRun, error) {
	args := m.Called(ctx, installationID, owner, repo, workflowFile, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.GitHubWorkflowRun), args.Error(1)
}

// GetWorkflowRun mocks fetching a single workflow run
func (m *MockGitHubClient) GetWorkflowRun(
	ctx context.Context,
	installationID, owner, repo string,
	runID int64,
) (*clients.GitHubWorkflowRun, error) {
	args := m.Called(ctx, installationID, owner, repo, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.GitHubWorkflowRun), args.Error(1)
}
