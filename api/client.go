// Package api is a thin HTTP client for the REST API under test.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/networkteam/shopcheck/config"
)

type Options struct {
	BaseURL string
	// Timeout bounds each request including reading the body. Default: 30s
	Timeout time.Duration
	// Headers are sent with every request; per-call headers win.
	Headers map[string]string
	// Transport is the underlying round tripper. Default: http.DefaultTransport
	Transport http.RoundTripper
	// CaptureBodyLimit is the number of body bytes kept per captured exchange. Default: 64KiB
	CaptureBodyLimit int
	// ExchangeCapacity is the number of captured exchanges kept in memory. Default: 100
	ExchangeCapacity int
}

// OptionsFromSettings maps the API settings to client options.
func OptionsFromSettings(s config.APISettings) Options {
	return Options{
		BaseURL: s.BaseURL,
		Timeout: s.Timeout,
		Headers: s.Headers,
	}
}

// Client issues single requests against a base URL. There is no retry: every call performs
// exactly one request and returns the raw response.
type Client struct {
	baseURL string
	headers map[string]string
	http    *http.Client
	log     *exchangeLog
}

func NewClient(options Options) *Client {
	if options.Timeout <= 0 {
		options.Timeout = 30 * time.Second
	}
	if options.CaptureBodyLimit <= 0 {
		options.CaptureBodyLimit = DefaultCaptureBodyLimit
	}
	next := options.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	log := newExchangeLog(options.ExchangeCapacity)
	headers := make(map[string]string, len(options.Headers))
	for k, v := range options.Headers {
		headers[k] = v
	}

	return &Client{
		baseURL: options.BaseURL,
		headers: headers,
		log:     log,
		http: &http.Client{
			Timeout: options.Timeout,
			Transport: &captureTransport{
				next:      next,
				log:       log,
				bodyLimit: options.CaptureBodyLimit,
			},
		},
	}
}

// Response is a fully read HTTP response.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

func (r *Response) Text() string { return string(r.Body) }

func (c *Client) Get(ctx context.Context, endpoint string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil, headers)
}

// Post sends body as JSON. Content-Type defaults to application/json unless headers set one.
// A nil body sends no payload.
func (c *Client) Post(ctx context.Context, endpoint string, body any, headers map[string]string) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}
	if !hasHeader(headers, "Content-Type") {
		withType := make(map[string]string, len(headers)+1)
		for k, v := range headers {
			withType[k] = v
		}
		withType["Content-Type"] = "application/json"
		headers = withType
	}
	return c.do(ctx, http.MethodPost, endpoint, payload, headers)
}

func (c *Client) Delete(ctx context.Context, endpoint string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil, headers)
}

// Exchanges returns up to the n most recent captured exchanges, oldest first.
func (c *Client) Exchanges(n int) []Exchange {
	return c.log.last(n)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, headers map[string]string) (*Response, error) {
	target, err := c.resolve(endpoint)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, target, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", method, target, err)
	}
	return &Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// resolve joins endpoint onto the base URL. Absolute URLs are used as is.
func (c *Client) resolve(endpoint string) (string, error) {
	if u, err := url.Parse(endpoint); err == nil && u.IsAbs() {
		return endpoint, nil
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("relative endpoint %q without base URL", endpoint)
	}
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/"), nil
}

// statusText prefers the reason phrase sent by the server.
func statusText(resp *http.Response) string {
	code := fmt.Sprintf("%d", resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// StatusError is returned by typed operations when the API answers with a non-2xx status.
type StatusError struct {
	Op         string
	Status     int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to %s. Status: %d, StatusText: %s", e.Op, e.Status, e.StatusText)
}

func newStatusError(op string, resp *Response) *StatusError {
	return &StatusError{Op: op, Status: resp.Status, StatusText: resp.StatusText}
}
