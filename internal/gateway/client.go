// Package gateway talks to the remote todo collection. Every operation is a
// single HTTP call: no retries, no backoff, failures go straight back to the
// caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/idilsaglam/tada-remote/internal/logging"
	"github.com/idilsaglam/tada-remote/internal/model"
)

// DefaultBaseURL is the public demo collection.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// Client is a thin JSON client for /todos.
type Client struct {
	base   string
	http   *http.Client
	logger *logging.Logger
}

// Option tweaks a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger attaches a logger; calls are logged at debug.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client rooted at baseURL, e.g. DefaultBaseURL or a local
// proxy such as http://127.0.0.1:8080/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: expected http(s)://host[/path]", baseURL)
	}
	c := &Client{base: baseURL, http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized root the client talks to.
func (c *Client) BaseURL() string { return c.base }

// List returns the whole collection in remote order.
func (c *Client) List(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	if _, err := c.do(ctx, "list todos", http.MethodGet, "/todos", nil, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

// Get fetches one record for the detail view.
func (c *Client) Get(ctx context.Context, id int) (model.Todo, error) {
	var t model.Todo
	if _, err := c.do(ctx, fmt.Sprintf("get todo %d", id), http.MethodGet, todoPath(id), nil, &t); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

// Create sends draft and returns the record with its remote-assigned id,
// along with the success status the remote answered with.
func (c *Client) Create(ctx context.Context, draft model.Draft) (model.Todo, int, error) {
	var t model.Todo
	status, err := c.do(ctx, "create todo", http.MethodPost, "/todos", draft, &t)
	if err != nil {
		return model.Todo{}, 0, err
	}
	return t, status, nil
}

// Update sends patch for id. The returned revision only carries the fields
// the remote echoed back.
func (c *Client) Update(ctx context.Context, id int, patch model.Patch) (model.Revision, error) {
	var rev model.Revision
	if _, err := c.do(ctx, fmt.Sprintf("update todo %d", id), http.MethodPut, todoPath(id), patch, &rev); err != nil {
		return model.Revision{}, err
	}
	if rev.ID == 0 {
		rev.ID = id
	}
	return rev, nil
}

// Delete asks the remote to drop id. A non-success status is reported as
// false, not as an error; only transport failures return one.
func (c *Client) Delete(ctx context.Context, id int) (bool, error) {
	op := fmt.Sprintf("delete todo %d", id)
	resp, err := c.send(ctx, op, http.MethodDelete, todoPath(id), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return success(resp.StatusCode), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (int, error) {
	resp, err := c.send(ctx, op, method, path, in)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, &FetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &FetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}

func (c *Client) send(ctx context.Context, op, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("remote call failed", "method", method, "path", path, "err", err)
		return nil, &FetchError{Op: op, Err: err}
	}
	c.logger.Debug("remote call", "method", method, "path", path, "status", resp.StatusCode)
	return resp, nil
}

func todoPath(id int) string { return "/todos/" + strconv.Itoa(id) }

func success(status int) bool { return status >= 200 && status < 300 }
