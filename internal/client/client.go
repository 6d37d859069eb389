// Package client provides an HTTP client for the GovAI API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/govai-bd/govai/internal/pipeline"
	"github.com/govai-bd/govai/internal/pkg/hash"
	"github.com/govai-bd/govai/internal/querylog"
)

// Client is an HTTP client for the GovAI API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	adminToken string
	userID     string
}

// Config configures the client.
type Config struct {
	// BaseURL is the base URL of the API server.
	BaseURL string

	// Timeout is the request timeout. Queries can take a minute or more
	// when the LLM is retried.
	Timeout time.Duration

	// AdminToken is sent as a bearer token to the admin endpoints.
	AdminToken string

	// UserID is attached to queries. If empty, one is derived from the host.
	UserID string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Timeout: 3 * time.Minute,
	}
}

// DefaultUserID returns a stable anonymous identifier for this machine.
func DefaultUserID() string {
	parts := []string{runtime.GOOS, runtime.GOARCH}
	if hostname, err := os.Hostname(); err == nil {
		parts = append([]string{hostname}, parts...)
	}
	return hash.AnonymousID("cli-", parts...)
}

// New creates a new API client.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserID == "" {
		cfg.UserID = DefaultUserID()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		adminToken: cfg.AdminToken,
		userID:     cfg.UserID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// UserID returns the identifier sent with queries.
func (c *Client) UserID() string {
	return c.userID
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Version string `json:"version,omitempty"`
}

// APIError represents an API error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Health checks if the API is healthy.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/healthz", false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ask submits a query.
func (c *Client) Ask(ctx context.Context, query string, includeSources bool) (*pipeline.Response, error) {
	body := map[string]any{
		"query":           query,
		"user_id":         c.userID,
		"include_sources": includeSources,
	}
	var resp pipeline.Response
	if err := c.post(ctx, "/v1/query", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats fetches dashboard statistics. window accepts "all", "24h" or "7d".
func (c *Client) Stats(ctx context.Context, window string, top int) (*querylog.Stats, error) {
	q := url.Values{}
	if window != "" {
		q.Set("window", window)
	}
	if top > 0 {
		q.Set("top", strconv.Itoa(top))
	}
	var stats querylog.Stats
	if err := c.get(ctx, "/v1/admin/stats?"+q.Encode(), true, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Logs fetches the most recent query records, newest first.
func (c *Client) Logs(ctx context.Context, limit int) ([]querylog.Record, error) {
	path := "/v1/admin/logs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Logs []querylog.Record `json:"logs"`
	}
	if err := c.get(ctx, path, true, &resp); err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, admin bool, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if admin && c.adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	return c.do(req, result)
}

// post performs a POST request.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

// do executes a request.
func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		apiErr.Status = resp.StatusCode
		return &apiErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
