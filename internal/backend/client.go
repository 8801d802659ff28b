// Package backend is the outbound transport to an RT-CV server: authenticated
// JSON and multipart calls with a fixed timeout, structured errors and the
// linear retry policy.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/rtcv-scraper-bridge/internal/clock/system"
	"github.com/JakeFAU/rtcv-scraper-bridge/internal/metrics"
)

// DefaultTimeout bounds every single call made to RT-CV.
const DefaultTimeout = 60 * time.Second

// Clock returns the current time and sleeps (useful for testing).
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Request describes a call. Body is JSON encoded unless it is a *Form.
type Request struct {
	Method  string
	Body    any
	Headers map[string]string
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Credentials Credentials
	// Alternative marks the client as talking to the mirror server, used for metric labels.
	Alternative bool
	Timeout     time.Duration
	HTTPClient  *http.Client
	Clock       Clock
	RetryPolicy *LinearRetryPolicy
	Logger      *zap.Logger
}

// Client performs calls against a single RT-CV server.
type Client struct {
	baseURL     string
	credentials Credentials
	backend     string
	timeout     time.Duration
	http        *http.Client
	clock       Clock
	retry       *LinearRetryPolicy
	logger      *zap.Logger
}

// New constructs a Client, filling in defaults for unset fields.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}
	if cfg.RetryPolicy == nil {
		cfg.RetryPolicy = NewLinearRetryPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		credentials: cfg.Credentials,
		backend:     metrics.BackendLabel(cfg.Alternative),
		timeout:     cfg.Timeout,
		http:        cfg.HTTPClient,
		clock:       cfg.Clock,
		retry:       cfg.RetryPolicy,
		logger:      cfg.Logger,
	}
}

// BaseURL returns the origin this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call makes one request to RT-CV and decodes the JSON response into out
// when out is non-nil. Status codes >= 400 yield a *FetchError, failures
// without a response yield a *TransportError.
func (c *Client) Call(ctx context.Context, path string, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		body        io.Reader
		contentType string
	)
	switch b := req.Body.(type) {
	case nil:
	case *Form:
		ct, data, err := b.encode()
		if err != nil {
			return fmt.Errorf("encode form for %s: %w", path, err)
		}
		body, contentType = bytes.NewReader(data), ct
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode body for %s: %w", path, err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", c.credentials.AuthorizationHeader())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveBackendCall(c.backend, method, 0, time.Since(start))
		return &TransportError{Path: path, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	raw, err := io.ReadAll(resp.Body)
	metrics.ObserveBackendCall(c.backend, method, resp.StatusCode, time.Since(start))
	if err != nil {
		return &TransportError{Path: path, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return NewFetchError(path, resp.StatusCode, string(raw))
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}
