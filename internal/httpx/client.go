// Package httpx is a small helper around net/http for talking to a remote
// JSON service under a fixed base URL.
//
// It deliberately does not retry: every Do is exactly one round trip.
package httpx

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
)

// DefaultTimeout bounds a single round trip when no other timeout is set.
const DefaultTimeout = 10 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used by the helper.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// Client wraps http.Client with a base URL and default headers.
// It is safe for concurrent use once constructed.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	headers    http.Header
}

// Request describes a single outbound request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   io.Reader
}

// NewClient creates a Client for the provided base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("httpx: base URL is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("httpx: invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("httpx: base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		headers:    make(http.Header),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do executes the request and returns the response, or an *HTTPError for
// any non-2xx status. The caller owns the returned body.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("httpx: request is nil")
	}
	if req.Method == "" {
		return nil, errors.New("httpx: HTTP method is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fullURL, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, req.Body)
	if err != nil {
		return nil, err
	}

	httpReq.Header = cloneHeader(c.headers)
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		return nil, c.handleError(resp)
	}
	return resp, nil
}

// DoJSON executes the request and decodes a 2xx JSON body into out.
// A nil out discards the body.
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}

	data, err := ReadAllAndClose(resp.Body)
	if err != nil {
		return fmt.Errorf("httpx: read response body: %w", err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpx: decode response body: %w", err)
	}
	return nil
}

func (c *Client) buildURL(path string, q url.Values) (string, error) {
	// Keep any path prefix of the base URL (".../rest/v1") by resolving
	// relative to it rather than to the host root.
	base := *c.baseURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", err
	}
	if len(q) > 0 {
		ref.RawQuery = q.Encode()
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) handleError(resp *http.Response) error {
	body, err := ReadAllAndClose(resp.Body)
	if err != nil {
		return fmt.Errorf("httpx: read error body: %w", err)
	}
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header.Clone(),
	}
	if isJSON(resp.Header.Get("Content-Type")) {
		httpErr.JSON = decodeJSONBody(body)
	}
	return httpErr
}

// WithJSONBody serializes the supplied value into JSON and returns a reader.
func WithJSONBody(v any) (io.Reader, error) {
	data, err := jsonMarshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// ReadAllAndClose drains the reader and ensures it is closed.
func ReadAllAndClose(rc io.ReadCloser) ([]byte, error) {
	defer closeBody(rc)
	return io.ReadAll(rc)
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType) == "application/json"
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}

func jsonMarshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
