package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"faasrhub/clients"
)

// Client implements the clients.IdentityClient interface against a
// GoTrue-compatible identity backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	anonKey    string
}

// NewClient creates an identity client for the given backend URL and
// publishable API key.
func NewClient(baseURL, anonKey string) clients.IdentityClient {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		anonKey:    anonKey,
	}
}

// GetUser resolves the user a bearer access token belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*clients.IdentityUser, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token cannot be empty")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("identity backend rejected the access token: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("identity backend error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var user clients.IdentityUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}
