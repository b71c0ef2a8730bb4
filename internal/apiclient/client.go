// Package apiclient is the HTTP adapter for the marketplace REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ideabridge.org/internal/ids"
	"ideabridge.org/internal/obs"
)

const (
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
	maxBody         = 8 << 20
)

// TokenSource supplies the bearer credential for each request. An empty
// token means the request is sent anonymously.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks to one API base URL. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	paths   Paths
	logger  *zap.Logger
	timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client) error

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client is nil")
		}
		c.http = hc
		return nil
	}
}

// WithTokenSource attaches the bearer credential provider.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) error {
		c.tokens = ts
		return nil
	}
}

// WithRateLimit installs a client-side token bucket. perSecond <= 0 disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) error {
		if perSecond <= 0 {
			c.limiter = nil
			return nil
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithPaths replaces the endpoint templates.
func WithPaths(p Paths) Option {
	return func(c *Client) error {
		c.paths = p
		return nil
	}
}

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}

// WithTimeout bounds each request end to end.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = d
		return nil
	}
}

// New builds a client for baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    http.DefaultClient,
		paths:   DefaultPaths(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	if c.logger == nil {
		c.logger = obs.Logger()
	}
	return c, nil
}

// Paths returns the endpoint templates in use.
func (c *Client) Paths() Paths { return c.paths }

// do sends one request and returns the raw 2xx body. Calls are never retried.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Message: transportMessage, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	rid := ids.RequestID()
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, rid)
	if c.tokens != nil {
		if tok := strings.TrimSpace(c.tokens.Token()); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		obs.ObserveClient(method, path, 0, time.Since(start))
		c.logger.Warn("api request failed",
			zap.String("request_id", rid),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &Error{Message: transportMessage, RequestID: rid, Err: err}
	}
	defer resp.Body.Close()
	obs.ObserveClient(method, path, resp.StatusCode, time.Since(start))

	if srvID := resp.Header.Get(requestIDHeader); srvID != "" {
		rid = srvID
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &Error{Status: resp.StatusCode, Message: serverMessage(raw), RequestID: rid}
		c.logger.Debug("api request rejected",
			zap.String("request_id", rid),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", apiErr.Message),
		)
		return nil, apiErr
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		c.logger.Warn("api response read failed", zap.String("request_id", rid), zap.Error(err))
		return nil, &Error{Status: 0, Message: transportMessage, RequestID: rid, Err: err}
	}
	return raw, nil
}

// serverMessage extracts {"error": "..."} or {"message": "..."}.
func serverMessage(raw []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	var s string
	if len(body.Error) > 0 && json.Unmarshal(body.Error, &s) == nil && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if len(body.Error) > 0 && json.Unmarshal(body.Error, &nested) == nil && strings.TrimSpace(nested.Message) != "" {
		return strings.TrimSpace(nested.Message)
	}
	return strings.TrimSpace(body.Message)
}

func getList[T any](ctx context.Context, c *Client, path, key string) ([]T, error) {
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](raw, key)
}

func sendOne[T any](ctx context.Context, c *Client, method, path string, body any, key string) (T, error) {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeOne[T](raw, key)
}
