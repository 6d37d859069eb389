// Package httpjson is the shared JSON-over-HTTP plumbing used by the search
// provider and LLM clients. Failures come back as *errors.AppError so that
// callers can classify them as transient or permanent.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
)

const maxBodyBytes = 8 << 20

// DefaultUserAgent is sent on every outbound request.
const DefaultUserAgent = "govai/1.0 (+https://github.com/govai-bd/govai)"

// Client performs JSON requests against one external service.
type Client struct {
	service    string
	httpClient *http.Client
	userAgent  string
}

// NewHTTPClient returns an http.Client with a pooled transport. Per-call
// deadlines come from the request context; timeout is only a backstop.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// New creates a client for service. A nil httpClient gets a pooled default.
func New(service string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(2 * time.Minute)
	}
	return &Client{
		service:    service,
		httpClient: httpClient,
		userAgent:  DefaultUserAgent,
	}
}

// Service returns the name used in error messages.
func (c *Client) Service() string {
	return c.service
}

// Get performs a GET request and decodes the JSON response into result.
func (c *Client) Get(ctx context.Context, url string, header http.Header, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to create request", err)
	}
	copyHeader(req.Header, header)

	return c.Do(req, result)
}

// Post marshals body as JSON, posts it and decodes the response into result.
func (c *Client) Post(ctx context.Context, url string, header http.Header, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	copyHeader(req.Header, header)

	return c.Do(req, result)
}

// Do executes req. Transport failures, non-2xx statuses and undecodable
// bodies are mapped to TIMEOUT/SERVICE_UNAVAILABLE, FromStatus codes and
// BAD_RESPONSE respectively.
func (c *Client) Do(req *http.Request, result any) error {
	req.Header.Set("Accept", "application/json")
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.FromTransport(c.service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.FromTransport(c.service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.FromStatus(c.service, resp.StatusCode, string(body))
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return apperrors.Wrap(apperrors.CodeBadResponse,
			fmt.Sprintf("%s returned an unreadable response", c.service), err)
	}
	return nil
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
