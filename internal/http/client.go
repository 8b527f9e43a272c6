// Package http is the transport shared by the token cache and the resource
// client. It resolves paths against a base URL, attaches bearer tokens and
// applies a per-method retry policy on top of go-retryablehttp.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/gradecam/schoolnet-client/internal/constants"
	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// TokenManager supplies bearer tokens for outgoing requests.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
}

// Logger receives request, response and retry events.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request describes a single API call. Body is JSON-encoded; Form, when set,
// is sent as application/x-www-form-urlencoded instead.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Form    url.Values
	Headers map[string]string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
}

// Client sends requests relative to a base URL.
type Client struct {
	baseURL      *url.URL
	tokenManager TokenManager
	logger       Logger
	debug        bool
	userAgent    string
	timeout      time.Duration
	httpClient   *nethttp.Client
	retryMax     int
	backoff      []time.Duration

	policies map[RetryPolicy]*retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient uses client as the underlying transport.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRetryConfig sets the retry count and the wait before each retry.
func WithRetryConfig(retryMax int, backoff []time.Duration) Option {
	return func(c *Client) {
		c.retryMax = retryMax
		c.backoff = backoff
	}
}

// NewClient creates a client for baseURL. tokenManager may be nil for
// unauthenticated calls such as the token request itself.
func NewClient(baseURL string, tokenManager TokenManager, opts ...Option) *Client {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" {
		parsed = &url.URL{Scheme: "https", Host: strings.TrimPrefix(baseURL, "//")}
	}

	client := &Client{
		baseURL:      parsed,
		tokenManager: tokenManager,
		logger:       schoolnet.NopLogger{},
		userAgent:    constants.DefaultUserAgent,
		timeout:      constants.DefaultHTTPTimeout,
		retryMax:     constants.MaxRetries,
		backoff:      constants.BackoffSchedule(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		client.httpClient = &nethttp.Client{Timeout: client.timeout}
	}

	client.policies = map[RetryPolicy]*retryablehttp.Client{
		RetryTransient: client.newRetryClient(client.retryMax, transientRetryPolicy),
		RetryNetwork:   client.newRetryClient(client.retryMax, networkRetryPolicy),
		RetryNever:     client.newRetryClient(0, neverRetryPolicy),
	}

	return client
}

func (c *Client) newRetryClient(retryMax int, check retryablehttp.CheckRetry) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = c.httpClient
	rc.RetryMax = retryMax
	rc.CheckRetry = check
	rc.Backoff = c.scheduleBackoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = &leveledLogger{logger: c.logger}

	return rc
}

// scheduleBackoff returns backoff[attempt], repeating the last entry when
// more retries are configured than waits.
func (c *Client) scheduleBackoff(_, _ time.Duration, attemptNum int, _ *nethttp.Response) time.Duration {
	if len(c.backoff) == 0 {
		return 0
	}

	wait := c.backoff[len(c.backoff)-1]
	if attemptNum < len(c.backoff) {
		wait = c.backoff[attemptNum]
	}

	c.logger.Info("Retrying request after", map[string]interface{}{
		"wait":    wait.String(),
		"attempt": attemptNum + 1,
	})

	return wait
}

// BaseURL returns the URL paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do sends req using the retry policy for its method. Non-2xx responses are
// returned together with a *schoolnet.APIError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target.String(), rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting access token: %w", err)
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    target.Redacted(),
		})
	}

	httpResp, err := c.policies[PolicyFor(req.Method)].Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method": req.Method,
			"url":    target.Redacted(),
			"status": resp.StatusCode,
			"bytes":  len(data),
		})
	}

	if resp.StatusCode >= nethttp.StatusBadRequest {
		return resp, &schoolnet.APIError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			Path:       req.Path,
			Body:       data,
		}
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodGet, Path: path, Query: query})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPut, Path: path, Body: body})
}

// PostForm performs a form-encoded POST request.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPost, Path: path, Form: form})
}

func (c *Client) resolve(path string, query url.Values) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", path, err)
	}

	target := c.baseURL.ResolveReference(ref)

	if len(query) > 0 {
		merged := target.Query()
		for k, v := range query {
			merged[k] = v
		}

		target.RawQuery = merged.Encode()
	}

	return target, nil
}

func encodeBody(req *Request) ([]byte, string, error) {
	if req.Form != nil {
		return []byte(req.Form.Encode()), "application/x-www-form-urlencoded", nil
	}

	if req.Body == nil {
		return nil, "", nil
	}

	var buf bytes.Buffer

	err := json.NewEncoder(&buf).Encode(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request body: %w", err)
	}

	return buf.Bytes(), "application/json", nil
}
