// Package apiclient is the single request-sending facility used to talk to the
// BCA backend. It attaches session cookies to every request and turns 401
// replies into authentication-failure signals for the session controller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bengalcodingacademy-dev/admin/pkg/model"
)

const (
	// DefaultBaseURL is used when no backend URL is configured.
	DefaultBaseURL = "http://localhost:4000/api"

	// DefaultTimeout bounds a single request including reading the body.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error reply is buffered.
	maxErrorBody = 1 << 20
)

// AuthFailureHandler receives authentication failures raised after startup.
type AuthFailureHandler func(failure model.AuthFailure)

// Options configures a Client.
type Options struct {
	BaseURL   string
	LoginPath string
	Timeout   time.Duration
	UserAgent string
	// Transport is wrapped with OpenTelemetry instrumentation.
	// Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// Cookies persists the backend session between processes. Optional.
	Cookies CookieStore
	Logger  *slog.Logger
}

// Client sends requests to the backend with credentials attached.
type Client struct {
	baseURL   string
	loginPath string
	userAgent string
	http      *http.Client
	jar       *sessionJar
	logger    *slog.Logger

	mu            sync.Mutex
	onAuthFailure AuthFailureHandler
	bootstrapped  bool
}

// New creates a Client. Cookies saved in opts.Cookies are loaded into the jar.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.LoginPath == "" {
		opts.LoginPath = PathLogin
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "bcaadmin"
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	jar, err := newSessionJar(opts.BaseURL, opts.Cookies)
	if err != nil {
		return nil, err
	}
	if err := jar.load(ctx); err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		loginPath: opts.LoginPath,
		userAgent: opts.UserAgent,
		http: &http.Client{
			Transport: otelhttp.NewTransport(opts.Transport),
			Jar:       jar,
			Timeout:   opts.Timeout,
		},
		jar:    jar,
		logger: opts.Logger.With("component", "apiclient"),
	}, nil
}

// BaseURL returns the backend URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RegisterAuthFailureHandler stores h as the one active handler, replacing any
// previous one. A nil h disarms the handler.
func (c *Client) RegisterAuthFailureHandler(h AuthFailureHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAuthFailure = h
}

// MarkBootstrapComplete closes the bootstrap gate. Until it is called, 401
// replies are returned to the caller without notifying the handler.
func (c *Client) MarkBootstrapComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bootstrapped = true
}

// BootstrapComplete reports whether the bootstrap gate has been closed.
func (c *Client) BootstrapComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bootstrapped
}

// ResetCredentials drops every cookie the client holds, including the
// persisted copy. The backend's own invalidation is authoritative; this only
// keeps stale cookies from being replayed.
func (c *Client) ResetCredentials(ctx context.Context) error {
	return c.jar.reset(ctx)
}

// NewRequest builds a request for path relative to the base URL.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

// Send issues req with the session cookies attached. Replies below 400 are
// returned verbatim and the caller owns the body. Other replies are returned
// as a *StatusError. A 401 after bootstrap also notifies the registered
// handler before the error is returned.
func (c *Client) Send(req *http.Request) (*http.Response, error) {
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", newRequestID())
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("HTTP request", "method", req.Method, "url", req.URL.String(),
		"request_id", req.Header.Get("X-Request-ID"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	if err := c.jar.persist(req.Context(), resp); err != nil {
		// Not fatal: the in-memory jar still holds the cookies.
		c.logger.Warn("persist cookies", "error", err)
	}

	c.logger.Debug("HTTP response", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)

	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("read error response: %w", err)
	}
	statusErr := newStatusError(req, resp, body)

	if resp.StatusCode == http.StatusUnauthorized {
		c.authFailed(statusErr)
	}
	return nil, statusErr
}

// authFailed routes a 401 to the handler unless the gate is still open.
func (c *Client) authFailed(err *StatusError) {
	c.mu.Lock()
	bootstrapped := c.bootstrapped
	handler := c.onAuthFailure
	c.mu.Unlock()

	if !bootstrapped {
		c.logger.Debug("unauthorized during initial check, handler skipped", "path", err.Path)
		return
	}
	if handler == nil {
		c.logger.Debug("unauthorized, no handler registered", "path", err.Path)
		return
	}

	failure := model.AuthFailure{Code: err.Code}
	if err.Code == model.ErrTokenExpired {
		failure.Message = model.SessionExpiredMessage
	}
	c.logger.Info("authentication failure", "path", err.Path, "code", string(err.Code))
	handler(failure)
}

// Do sends a JSON request and decodes the JSON reply into out.
// in and out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// Get performs a GET request and decodes the reply into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func newRequestID() string {
	return "req_" + uuid.New().String()[:8]
}
