package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-client/internal/metrics"
)

// TokenSource supplies the bearer credential for outgoing requests. An empty
// token means the request is sent anonymously.
type TokenSource interface {
	Token() string
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func() string

func (f TokenSourceFunc) Token() string { return f() }

// UnauthorizedFunc is invoked after any response with status 401. token is
// the credential the rejected request carried, empty if it had none.
type UnauthorizedFunc func(ctx context.Context, token string)

// Client is the single request pipeline to the storefront API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    *time.Duration
	logger     *zap.Logger
	metrics    metrics.Recorder

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized []UnauthorizedFunc
}

type Option func(*Client)

// WithHTTPClient replaces the transport. The default is a plain http.Client
// with no timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the overall request timeout. It applies to a copy of the
// http.Client, so a client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(rec metrics.Recorder) Option {
	return func(c *Client) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// New builds a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(parsed.String(), "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
		metrics:    metrics.NewNoopRecorder(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UseTokenSource swaps the credential accessor. It exists because the session
// container that owns the credential is itself built on top of the Client.
func (c *Client) UseTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

// OnUnauthorized registers fn to run after every 401 response.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
	c.mu.Unlock()
}

type request struct {
	method string
	// route is the path template used as a metric label, e.g. /cart/items/{id}.
	route string
	path  string
	query url.Values
	body  interface{}
}

// Do sends an arbitrary request and decodes a JSON response into out (if
// non-nil). path is relative to the base URL.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	return c.send(ctx, request{method: method, route: path, path: path, query: query, body: body}, out)
}

func (c *Client) send(ctx context.Context, r request, out interface{}) error {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var payload io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", r.method, r.route, err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, payload)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", r.method, r.route, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	token := c.token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(r.method, r.route, 0, time.Since(start))
		c.logger.Warn("storefront request failed",
			zap.String("method", r.method),
			zap.String("route", r.route),
			zap.String("request_id", requestID),
			zap.Error(err))
		return &Error{Kind: KindNetwork, Method: r.method, Path: r.path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.metrics.RecordRequest(r.method, r.route, resp.StatusCode, elapsed)
	if err != nil {
		return &Error{Kind: KindNetwork, Method: r.method, Path: r.path, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("storefront request",
		zap.String("method", r.method),
		zap.String("route", r.route),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
		zap.String("request_id", requestID))

	if resp.StatusCode == http.StatusUnauthorized {
		c.fireUnauthorized(ctx, token)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(r.method, r.path, resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.method, r.route, err)
	}
	return nil
}

func (c *Client) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

func (c *Client) fireUnauthorized(ctx context.Context, token string) {
	c.mu.RLock()
	hooks := make([]UnauthorizedFunc, len(c.onUnauthorized))
	copy(hooks, c.onUnauthorized)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, token)
	}
}
