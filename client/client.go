// Package client talks to the labeling service over HTTP.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"demo-labeler/models"
)

// APIError is a non-2xx answer of the service.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	logger  hclog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) { c.logger = logger.Named("client") }
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListDemos returns the sessions offered by the service.
func (c *Client) ListDemos(ctx context.Context) ([]string, error) {
	var resp models.DemosResponse
	if err := c.do(ctx, http.MethodGet, "/demos", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Demos, nil
}

// Length returns the frame count of demo.
func (c *Client) Length(ctx context.Context, demo string) (int, error) {
	var resp models.LengthResponse
	if err := c.do(ctx, http.MethodGet, demoPath(demo, "length"), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Length, nil
}

// Cameras returns the camera identifiers of demo.
func (c *Client) Cameras(ctx context.Context, demo string) ([]string, error) {
	var resp models.CamerasResponse
	if err := c.do(ctx, http.MethodGet, demoPath(demo, "cameras"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cameras, nil
}

// Labels returns the full label array of demo.
func (c *Client) Labels(ctx context.Context, demo string) ([]models.Label, error) {
	var resp models.LabelsResponse
	if err := c.do(ctx, http.MethodGet, demoPath(demo, "labels"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

// UpdateLabel stores label for frame t of demo.
func (c *Client) UpdateLabel(ctx context.Context, demo string, t int, label models.Label) error {
	q := url.Values{}
	q.Set("demo", demo)
	q.Set("t", strconv.Itoa(t))
	q.Set("label", strconv.Itoa(int(label)))
	return c.do(ctx, http.MethodPost, "/update_label", q, &models.UpdateLabelResponse{})
}

// ClearLabels resets every label of demo to UNSET.
func (c *Client) ClearLabels(ctx context.Context, demo string) error {
	q := url.Values{}
	q.Set("demo", demo)
	return c.do(ctx, http.MethodPost, "/clear_labels", q, &models.StatusResponse{})
}

// FrameURL is the image URL of frame t of demo seen by camera.
func (c *Client) FrameURL(demo string, t int, camera string) string {
	q := url.Values{}
	q.Set("demo", demo)
	q.Set("t", strconv.Itoa(t))
	q.Set("camera", camera)
	return c.endpoint("/frame", q)
}

func demoPath(demo, leaf string) string {
	return "/demo/" + url.PathEscape(demo) + "/" + leaf
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.baseURL
	u.RawPath = ""
	u.Path = strings.TrimRight(u.Path, "/") + path
	if unescaped, err := url.PathUnescape(u.Path); err == nil && unescaped != u.Path {
		u.RawPath = u.Path
		u.Path = unescaped
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Trace("request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
		var body models.ErrorResponse
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
			if json.Unmarshal(data, &body) == nil {
				apiErr.Detail = body.Detail
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
