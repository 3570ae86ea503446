package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Client provides HTTP access to the Linguara backend API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	clientID   string

	// Debug callback (optional)
	debugFunc func(format string, args ...any)
}

// ClientConfig holds configuration for the API client.
type ClientConfig struct {
	// BaseURL is the Linguara API base URL (e.g., "https://linguara.ai")
	BaseURL string

	// Token is the api_token from `linguara login`
	Token string

	// Timeout is the HTTP request timeout (default: 30s)
	Timeout time.Duration

	// RequestsPerSecond caps outgoing request rate (default: 5).
	// Polling loops share the client, so the cap protects the backend from
	// aggressive --watch intervals.
	RequestsPerSecond float64

	// DebugFunc is an optional callback for debug logging
	DebugFunc func(format string, args ...any)
}

// NewClient creates a new Linguara API client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 5
	}

	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
		clientID:  fmt.Sprintf("linguara-%s", uuid.New().String()[:8]),
		debugFunc: cfg.DebugFunc,
	}
}

// debug logs a message if a debug function is configured
func (c *Client) debug(format string, args ...any) {
	if c.debugFunc != nil {
		c.debugFunc(format, args...)
	}
}

// ClientID returns the unique client instance identifier sent with requests.
func (c *Client) ClientID() string {
	return c.clientID
}

// Me verifies the configured token and returns the account it belongs to.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	var account Account
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/auth/me", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// LatestRelease returns the newest published CLI release.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	var release Release
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/releases/latest", nil, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

// doRequest performs an HTTP request with authentication and JSON handling.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	respBody, _, err := c.do(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// doText performs a GET request for a raw text body (article content).
func (c *Client) doText(ctx context.Context, path string) (string, error) {
	respBody, _, err := c.do(ctx, http.MethodGet, path, nil, "text/plain")
	if err != nil {
		return "", err
	}
	return string(respBody), nil
}

// do performs the request and maps error responses onto the client's error
// taxonomy. A 409 on the generate endpoint becomes a *ConflictError so
// callers can negotiate; 401 and 404 map to sentinel errors.
func (c *Client) do(ctx context.Context, method, path string, body any, accept string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
		c.debug("request: %s %s - body: %s", method, path, string(jsonData))
	} else {
		c.debug("request: %s %s", method, path)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Linguara-Client-ID", c.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	c.debug("response: %d - %d bytes", resp.StatusCode, len(respBody))

	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, c.errorFromResponse(resp.StatusCode, respBody)
	}

	return respBody, resp.StatusCode, nil
}

func (c *Client) errorFromResponse(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		var conflict conflictResponse
		if err := json.Unmarshal(body, &conflict); err == nil && conflict.Duplicate {
			return &ConflictError{Existing: conflict.ExistingJob}
		}
	}
	return &BackendError{
		StatusCode: statusCode,
		Message:    backendMessage(body),
	}
}
