package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loom/internal/api"
)

// Client provides HTTP access to the daemon's API surface.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// New builds a client for the daemon listening at bind (host:port).
// Compositions block until the engine finishes, so the default client
// carries no timeout; pass WithHTTPClient to bound it.
func New(bind string, opts ...Option) *Client {
	c := &Client{
		baseURL: "http://" + strings.TrimSpace(bind),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose submits segments and waits for the finished composition.
func (c *Client) Compose(ctx context.Context, req api.ComposeRequest) (*api.ComposeResponse, error) {
	var resp api.ComposeResponse
	if err := c.do(ctx, http.MethodPost, "/api/compositions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RenderTimeline submits a timeline and waits for the rendered artifact.
func (c *Client) RenderTimeline(ctx context.Context, req api.TimelineRequest) (*api.ComposeResponse, error) {
	var resp api.ComposeResponse
	if err := c.do(ctx, http.MethodPost, "/api/timelines", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs lists jobs, optionally filtered by status values.
func (c *Client) Jobs(ctx context.Context, statuses ...string) (*api.JobListResponse, error) {
	path := "/api/jobs"
	if len(statuses) > 0 {
		params := make([]string, 0, len(statuses))
		for _, status := range statuses {
			params = append(params, "status="+status)
		}
		path += "?" + strings.Join(params, "&")
	}
	var resp api.JobListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Job fetches one job by id. A missing job surfaces as an error carrying
// the daemon's 404 message.
func (c *Client) Job(ctx context.Context, id string) (*api.JobResponse, error) {
	var resp api.JobResponse
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves daemon diagnostics.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var resp api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping reports whether the daemon answers on its status endpoint.
func (c *Client) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := c.Status(pingCtx)
	return err == nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contact daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon error (%d): %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("daemon error (%d)", resp.StatusCode)
}
