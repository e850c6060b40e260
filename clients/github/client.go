package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/samber/mo"

	"faasrhub/clients"
)

const defaultBaseURL = "https://api.github.com"

// installationTokenBuffer is how long before expiry a cached installation
// token is discarded. Installation tokens live an hour.
const installationTokenBuffer = 5 * time.Minute

// Client implements the clients.GitHubClient interface against the GitHub
// REST API, authenticating as a GitHub App.
type Client struct {
	httpClient *http.Client
	baseURL    string
	signer     *appJWTSigner

	mu     sync.RWMutex
	tokens map[string]*clients.GitHubInstallationToken
}

// NewClient creates a GitHub client for the given app credentials.
func NewClient(appID, privateKeyPEM string) (clients.GitHubClient, error) {
	return NewClientWithBaseURL(appID, privateKeyPEM, defaultBaseURL)
}

// NewClientWithBaseURL creates a GitHub client pointed at a custom API base
// URL. Intended for tests talking to a local server.
func NewClientWithBaseURL(appID, privateKeyPEM, baseURL string) (clients.GitHubClient, error) {
	signer, err := newAppJWTSigner(appID, privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to create app JWT signer: %w", err)
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		signer:     signer,
		tokens:     make(map[string]*clients.GitHubInstallationToken),
	}, nil
}

// newRequest builds an API request carrying the standard GitHub headers.
func (c *Client) newRequest(
	ctx context.Context,
	method, path, token string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// GetInstallation fetches an installation by ID, authenticating as the app.
func (c *Client) GetInstallation(
	ctx context.Context,
	installationID string,
) (*clients.GitHubInstallation, error) {
	jwtToken, err := c.signer.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get app JWT: %w", err)
	}

	req, err := c.newRequest(ctx, "GET", "/app/installations/"+installationID, jwtToken, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, resp.Body)
	}

	var installation clients.GitHubInstallation
	if err := json.NewDecoder(resp.Body).Decode(&installation); err != nil {
		return nil, fmt.Errorf("failed to decode installation: %w", err)
	}
	return &installation, nil
}

// CreateInstallationToken mints a fresh installation access token.
func (c *Client) CreateInstallationToken(
	ctx context.Context,
	installationID string,
) (*clients.GitHubInstallationToken, error) {
	jwtToken, err := c.signer.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get app JWT: %w", err)
	}

	path := fmt.Sprintf("/app/installations/%s/access_tokens", installationID)
	req, err := c.newRequest(ctx, "POST", path, jwtToken, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, newAPIError(resp.StatusCode, resp.Body)
	}

	var token clients.GitHubInstallationToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode installation token: %w", err)
	}
	return &token, nil
}

// installationToken returns a cached installation token, minting a new one
// when none is cached or the cached one nears expiry.
func (c *Client) installationToken(ctx context.Context, installationID string) (string, error) {
	c.mu.RLock()
	if cached, ok := c.tokens[installationID]; ok &&
		time.Now().Before(cached.ExpiresAt.Add(-installationTokenBuffer)) {
		token := cached.Token
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.tokens[installationID]; ok &&
		time.Now().Before(cached.ExpiresAt.Add(-installationTokenBuffer)) {
		return cached.Token, nil
	}

	token, err := c.CreateInstallationToken(ctx, installationID)
	if err != nil {
		return "", err
	}
	c.tokens[installationID] = token
	return token.Token, nil
}

// GetRepository fetches a repository, returning None when it does not exist
// or is not visible to the installation.
func (c *Client) GetRepository(
	ctx context.Context,
	installationID, owner, repo string,
) (mo.Option[*clients.GitHubRepository], error) {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return mo.None[*clients.GitHubRepository](), err
	}

	path := fmt.Sprintf("/repos/%s/%s", owner, repo)
	req, err := c.newRequest(ctx, "GET", path, token, nil)
	if err != nil {
		return mo.None[*clients.GitHubRepository](), err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mo.None[*clients.GitHubRepository](), fmt.Errorf("failed to get repository: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return mo.None[*clients.GitHubRepository](), nil
	}
	if resp.StatusCode != http.StatusOK {
		return mo.None[*clients.GitHubRepository](), newAPIError(resp.StatusCode, resp.Body)
	}

	var repository clients.GitHubRepository
	if err := json.NewDecoder(resp.Body).Decode(&repository); err != nil {
		return mo.None[*clients.GitHubRepository](), fmt.Errorf("failed to decode repository: %w", err)
	}
	return mo.Some(&repository), nil
}

// CreateFork asks GitHub to fork the repository into the installation
// account. GitHub answers 202 and completes the fork asynchronously.
func (c *Client) CreateFork(ctx context.Context, installationID, owner, repo string) error {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/repos/%s/%s/forks", owner, repo)
	req, err := c.newRequest(ctx, "POST", path, token, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create fork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return newAPIError(resp.StatusCode, resp.Body)
	}
	return nil
}

// GetFileContent fetches blob metadata for a path, returning None when the
// file does not exist on the ref.
func (c *Client) GetFileContent(
	ctx context.Context,
	installationID, owner, repo, filePath, ref string,
) (mo.Option[*clients.GitHubFileContent], error) {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return mo.None[*clients.GitHubFileContent](), err
	}

	path := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, filePath)
	if ref != "" {
		path += "?ref=" + url.QueryEscape(ref)
	}
	req, err := c.newRequest(ctx, "GET", path, token, nil)
	if err != nil {
		return mo.None[*clients.GitHubFileContent](), err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mo.None[*clients.GitHubFileContent](), fmt.Errorf("failed to get file content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return mo.None[*clients.GitHubFileContent](), nil
	}
	if resp.StatusCode != http.StatusOK {
		return mo.None[*clients.GitHubFileContent](), newAPIError(resp.StatusCode, resp.Body)
	}

	var content clients.GitHubFileContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return mo.None[*clients.GitHubFileContent](), fmt.Errorf("failed to decode file content: %w", err)
	}
	return mo.Some(&content), nil
}

// CreateOrUpdateFile commits file content to a branch. The request SHA must
// carry the current blob hash when replacing an existing file.
func (c *Client) CreateOrUpdateFile(
	ctx context.Context,
	installationID, owner, repo, filePath string,
	fileReq clients.CreateOrUpdateFileRequest,
) (*clients.GitHubCommit, error) {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return nil, err
	}

	payload := map[string]string{
		"message": fileReq.Message,
		"content": base64.StdEncoding.EncodeToString(fileReq.Content),
	}
	if fileReq.Branch != "" {
		payload["branch"] = fileReq.Branch
	}
	if fileReq.SHA != "" {
		payload["sha"] = fileReq.SHA
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal file request: %w", err)
	}

	path := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, filePath)
	req, err := c.newRequest(ctx, "PUT", path, token, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to commit file: %w", err)
	}
	defer resp.Body.Close()

	// 201 on create, 200 on update.
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, resp.Body)
	}

	var result struct {
		Commit clients.GitHubCommit `json:"commit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode commit response: %w", err)
	}
	return &result.Commit, nil
}

// DispatchWorkflow triggers a workflow_dispatch event on the given workflow
// file.
func (c *Client) DispatchWorkflow(
	ctx context.Context,
	installationID, owner, repo, workflowFile, ref string,
	inputs map[string]string,
) error {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return err
	}

	payload := map[string]any{"ref": ref}
	if len(inputs) > 0 {
		payload["inputs"] = inputs
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch request: %w", err)
	}

	path := fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/dispatches", owner, repo, workflowFile)
	req, err := c.newRequest(ctx, "POST", path, token, bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to dispatch workflow: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return newAPIError(resp.StatusCode, resp.Body)
	}
	return nil
}

// ListWorkflowRuns lists runs of a workflow file, most recent first.
func (c *Client) ListWorkflowRuns(
	ctx context.Context,
	installationID, owner, repo, workflowFile string,
	perPage int,
) ([]clients.GitHubWorkflowRun, error) {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf(
		"/repos/%s/%s/actions/workflows/%s/runs?per_page=%d",
		owner, repo, workflowFile, perPage,
	)
	req, err := c.newRequest(ctx, "GET", path, token, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow runs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, resp.Body)
	}

	var result struct {
		WorkflowRuns []clients.GitHubWorkflowRun `json:"workflow_runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode workflow runs: %w", err)
	}
	return result.WorkflowRuns, nil
}

// GetWorkflowRun fetches a single workflow run by ID.
func (c *Client) GetWorkflowRun(
	ctx context.Context,
	installationID, owner, repo string,
	runID int64,
) (*clients.GitHubWorkflowRun, error) {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d", owner, repo, runID)
	req, err := c.newRequest(ctx, "GET", path, token, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, resp.Body)
	}

	var run clients.GitHubWorkflowRun
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode workflow run: %w", err)
	}
	return &run, nil
}
