package remote

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
	"time"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

// Store is the collection resource as seen by the data-access layer.
// It is implemented by *Client and can be faked in tests.
type Store interface {
	Probe(ctx context.Context) bool
	List(ctx context.Context, limit, offset int) Result[[]entry.Row]
	Get(ctx context.Context, id entry.ID) Result[entry.Row]
	Create(ctx context.Context, row entry.Row) Result[entry.Row]
	Update(ctx context.Context, id entry.ID, row entry.Row) Result[entry.Row]
	Delete(ctx context.Context, id entry.ID) Result[bool]
}

// Ensure Client implements Store at compile time.
var _ Store = (*Client)(nil)

// DefaultAPIBase is used when the configured base is empty.
const DefaultAPIBase = "http://localhost:3000/api"

const (
	defaultUserAgent = "mdc/0.1"
	requestTimeout   = 5 * time.Second
	maxBodyBytes     = 4 << 20
)

// Client talks to the collection API.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	userAgent  string
	forceLocal bool
}

// Option configures a Client.
type Option func(*Client)

// WithForceLocal makes every call behave as if the API were unavailable,
// without touching the network.
func WithForceLocal(force bool) Option {
	return func(c *Client) { c.forceLocal = force }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient builds a Client for apiBase (e.g. "http://localhost:3000/api").
func NewClient(apiBase string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API base.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// ForceLocal reports whether the client was built in local mode.
func (c *Client) ForceLocal() bool { return c.forceLocal }

// Probe reports whether the API answers its health check with a 2xx.
// It never errors; in local mode it is always false.
func (c *Client) Probe(ctx context.Context) bool {
	if c == nil || c.forceLocal {
		return false
	}
	resp, err := c.send(ctx, http.MethodGet, c.endpoint(nil, "health"), nil)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// List fetches one page of rows. A bare array or an {"items": [...]}
// envelope is accepted; any other 2xx body reads as an empty list.
// In local mode it returns an empty OK result without a request.
func (c *Client) List(ctx context.Context, limit, offset int) Result[[]entry.Row] {
	if c.forceLocal {
		return ok([]entry.Row{})
	}

	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		values.Set("offset", strconv.Itoa(offset))
	}

	body, res := c.do(ctx, http.MethodGet, c.endpoint(values, "entrenamientos"), nil)
	if res.Status != StatusOK {
		return Result[[]entry.Row]{Status: res.Status, Err: res.Err}
	}
	return ok(unpackItems(body))
}

// Get fetches one row by id.
func (c *Client) Get(ctx context.Context, id entry.ID) Result[entry.Row] {
	if c.forceLocal {
		return disabled[entry.Row]()
	}
	body, res := c.do(ctx, http.MethodGet, c.rowURL(id), nil)
	if res.Status != StatusOK {
		return Result[entry.Row]{Status: res.Status, Err: res.Err}
	}
	return decodeRow(body)
}

// Create posts a new row and returns the row as stored by the API.
func (c *Client) Create(ctx context.Context, row entry.Row) Result[entry.Row] {
	if c.forceLocal {
		return disabled[entry.Row]()
	}
	body, res := c.do(ctx, http.MethodPost, c.endpoint(nil, "entrenamientos"), row)
	if res.Status != StatusOK {
		return Result[entry.Row]{Status: res.Status, Err: res.Err}
	}
	return decodeRow(body)
}

// Update replaces the row with the given id and returns it as stored.
func (c *Client) Update(ctx context.Context, id entry.ID, row entry.Row) Result[entry.Row] {
	if c.forceLocal {
		return disabled[entry.Row]()
	}
	body, res := c.do(ctx, http.MethodPut, c.rowURL(id), row)
	if res.Status != StatusOK {
		return Result[entry.Row]{Status: res.Status, Err: res.Err}
	}
	return decodeRow(body)
}

// Delete removes the row with the given id. The value is the server's
// {"ok": ...} flag, true when the body carries none.
func (c *Client) Delete(ctx context.Context, id entry.ID) Result[bool] {
	if c.forceLocal {
		return disabled[bool]()
	}
	body, res := c.do(ctx, http.MethodDelete, c.rowURL(id), nil)
	if res.Status != StatusOK {
		return Result[bool]{Status: res.Status, Err: res.Err}
	}

	var payload struct {
		OK *bool `json:"ok"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.OK == nil {
		return ok(true)
	}
	return ok(*payload.OK)
}

// rowURL addresses one row. The id is escaped as a single path segment
// and never cleaned, so "../health" cannot reach another route.
func (c *Client) rowURL(id entry.ID) *url.URL {
	u := c.baseURL.JoinPath("entrenamientos")
	seg := url.PathEscape(id.String())
	if seg == "." || seg == ".." {
		seg = strings.ReplaceAll(seg, ".", "%2E")
	}
	base := strings.TrimSuffix(u.EscapedPath(), "/")
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + id.String()
	u.RawPath = base + "/" + seg
	return u
}

func (c *Client) endpoint(query url.Values, segments ...string) *url.URL {
	u := c.baseURL.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

// do sends the request and classifies the outcome. The returned body is
// only meaningful when the status is StatusOK.
func (c *Client) do(ctx context.Context, method string, u *url.URL, payload any) ([]byte, Result[struct{}]) {
	resp, err := c.send(ctx, method, u, payload)
	if err != nil {
		return nil, Result[struct{}]{Status: StatusUnreachable, Err: errors.NewRemoteUnreachable(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, Result[struct{}]{Status: StatusUnreachable, Err: errors.NewRemoteUnreachable(fmt.Errorf("read response: %w", err))}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, Result[struct{}]{
			Status: StatusRejected,
			Err:    errors.NewRemoteRejected(resp.StatusCode, serverMessage(body)),
		}
	}
	return body, Result[struct{}]{Status: StatusOK}
}

func (c *Client) send(ctx context.Context, method string, u *url.URL, payload any) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func decodeRow(body []byte) Result[entry.Row] {
	var row entry.Row
	if err := json.Unmarshal(body, &row); err != nil {
		return Result[entry.Row]{
			Status: StatusUnreachable,
			Err:    errors.NewRemoteUnreachable(fmt.Errorf("decode response: %w", err)),
		}
	}
	return ok(row)
}

func unpackItems(body []byte) []entry.Row {
	var rows []entry.Row
	if err := json.Unmarshal(body, &rows); err == nil && rows != nil {
		return rows
	}
	var envelope struct {
		Items []entry.Row `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Items != nil {
		return envelope.Items
	}
	return []entry.Row{}
}

// serverMessage pulls a human message out of an error body:
// {"error": "..."}, {"error": {"message": "..."}} or {"message": "..."}.
func serverMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Error) > 0 {
		var s string
		if err := json.Unmarshal(payload.Error, &s); err == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return payload.Message
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = DefaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", apiBase)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
