package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the identity provider. Unauthenticated operations live on
// the Client; Login returns a Session for everything that needs a token.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a provider client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// do performs a JSON request and decodes a 2xx body into out (if non-nil).
// Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Login signs in with email and password. On success the returned Session
// is at AAL1; callers needing AAL2 must complete a challenge/verify round.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var tok TokenResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: email, Password: password}, &tok)
	if err != nil {
		return nil, err
	}
	return newSession(c, tok), nil
}

// NewSessionFromToken rebuilds a Session around a previously issued token,
// for callers that persist tokens across restarts.
func (c *Client) NewSessionFromToken(accessToken string) *Session {
	return &Session{client: c, accessToken: accessToken}
}

// Bootstrap creates the very first account on a fresh provider. It only
// works while the user table is empty and the bootstrap token matches.
func (c *Client) Bootstrap(ctx context.Context, token, email, password string) (User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/v1/bootstrap", "", BootstrapRequest{Token: token, Email: email, Password: password}, &user)
	return user, err
}

// Livez reports whether the provider process is up.
func (c *Client) Livez(ctx context.Context) (HealthResponse, error) {
	var health HealthResponse
	err := c.do(ctx, http.MethodGet, "/livez", "", nil, &health)
	return health, err
}

// Readyz reports whether the provider and its database are ready.
func (c *Client) Readyz(ctx context.Context) (HealthResponse, error) {
	var health HealthResponse
	err := c.do(ctx, http.MethodGet, "/readyz", "", nil, &health)
	return health, err
}
