// Package relay posts inquiries to the hosted form-relay service that forwards
// them to the sales inbox.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/campopack/campopack-web/internal/inquiry"
)

// DefaultTimeout bounds a single relay round trip.
const DefaultTimeout = 15 * time.Second

// maxDrain caps how much of an acknowledgment body is read before closing.
const maxDrain = 64 << 10

// Observer receives the outcome of every outbound request.
type Observer interface {
	ObserveRelay(status string, elapsed time.Duration)
}

// Client wraps interactions with the relay endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	observer   Observer

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A client without its own
// Timeout gets the one passed to NewClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient constructs a client for endpoint. A non-positive timeout selects
// DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("relay: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("relay: endpoint %q must be http or https", endpoint)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Timeout <= 0 {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
	return c, nil
}

// Endpoint returns the relay URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send delivers draft to the relay. While a request for a non-empty key is in
// flight, further calls with that key return inquiry.ErrSubmitInProgress
// without contacting the relay.
func (c *Client) Send(ctx context.Context, key string, draft inquiry.Inquiry) error {
	if key != "" {
		if !c.acquire(key) {
			return inquiry.ErrSubmitInProgress
		}
		defer c.release(key)
	}
	return c.post(ctx, draft)
}

func (c *Client) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; busy {
		return false
	}
	c.inflight[key] = struct{}{}
	return true
}

func (c *Client) release(key string) {
	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
}

func (c *Client) post(ctx context.Context, draft inquiry.Inquiry) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, field := range draft.FormFields() {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return &inquiry.TransportError{Cause: fmt.Errorf("encode %s: %w", field.Name, err)}
		}
	}
	if err := writer.Close(); err != nil {
		return &inquiry.TransportError{Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return &inquiry.TransportError{Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(transportStatus(err), start)
		return &inquiry.TransportError{Cause: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
		_ = resp.Body.Close()
	}()
	c.observe(statusClass(resp.StatusCode), start)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &inquiry.TransportError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Ping checks that the relay endpoint answers. Any status below 500 counts as
// reachable; relays commonly reject GET on their submit URL.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("relay returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) observe(status string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRelay(status, time.Since(start))
	}
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

func transportStatus(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "timeout"
	}
	return "error"
}
