package snclient

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"github.com/gradecam/schoolnet-client/internal/auth"
	"github.com/gradecam/schoolnet-client/internal/client"
	"github.com/gradecam/schoolnet-client/internal/constants"
	"github.com/gradecam/schoolnet-client/internal/http"
	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// Client is a schoolnet.Client that also exposes its access token.
type Client struct {
	schoolnet.Client

	tokens   *auth.TokenCache
	apiURL   string
	tokenURL string
}

// TokenSource returns the client's token cache as an oauth2.TokenSource.
func (c *Client) TokenSource() oauth2.TokenSource {
	return c.tokens
}

// TokenState returns the cached token without contacting the server, or nil
// when no token has been fetched yet.
func (c *Client) TokenState() *oauth2.Token {
	return c.tokens.State()
}

// InvalidateToken discards the cached token so the next call fetches a new one.
func (c *Client) InvalidateToken(ctx context.Context) {
	c.tokens.Invalidate(ctx)
}

// APIURL returns the resource API root.
func (c *Client) APIURL() string {
	return c.apiURL
}

// TokenURL returns the token endpoint.
func (c *Client) TokenURL() string {
	return c.tokenURL
}

// New creates a Schoolnet client from config. config is not modified. When
// config.TokenCache already holds a valid token it is loaded using ctx.
func New(ctx context.Context, config *schoolnet.Config) (*Client, error) {
	if config == nil {
		return nil, schoolnet.ErrConfigRequired
	}

	apiURL, tokenURL, err := ResolveEndpoints(config.BaseURL)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = schoolnet.NewLogrusLogger(os.Stderr)
	}

	if config.LogLevel != "" {
		if setter, ok := logger.(schoolnet.LevelSetter); ok {
			err = setter.SetLevel(config.LogLevel)
			if err != nil {
				return nil, fmt.Errorf("applying log level: %w", err)
			}
		}
	}

	httpOpts := createHTTPClientOptions(config, logger)

	tokens := auth.NewTokenCache(
		http.NewClient(tokenURL, nil, httpOpts...),
		tokenURL,
		auth.NewCredentials(config.ClientID, config.ClientSecret, config.Scope),
		auth.WithLogger(logger),
		auth.WithStore(config.TokenCache),
	)

	if config.TokenCache != nil && tokens.Warm(ctx) {
		logger.Debug("reusing shared access token", map[string]interface{}{"token_url": tokenURL})
	}

	apiClient := http.NewClient(apiURL, tokens, httpOpts...)

	logger.Debug("schoolnet client created", map[string]interface{}{
		"api_url":   apiURL,
		"token_url": tokenURL,
	})

	return &Client{
		Client:   client.New(apiClient, tokens, logger),
		tokens:   tokens,
		apiURL:   apiURL,
		tokenURL: tokenURL,
	}, nil
}

// NewWithClientCredentials creates a client from a base URL and credentials.
func NewWithClientCredentials(ctx context.Context, baseURL, clientID, clientSecret string) (*Client, error) {
	return New(ctx, &schoolnet.Config{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// NewFromMap creates a client from a loosely keyed map, accepting the same
// aliases as schoolnet.ConfigFromMap.
func NewFromMap(ctx context.Context, values map[string]interface{}) (*Client, error) {
	return New(ctx, schoolnet.ConfigFromMap(values))
}

// ResolveEndpoints derives the resource API root and token endpoint from a
// base URL. A base URL without a scheme is treated as https.
func ResolveEndpoints(baseURL string) (string, string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "", "", schoolnet.ErrBaseURLRequired
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", schoolnet.ErrInvalidBaseURL, err)
	}

	if base.Host == "" {
		return "", "", fmt.Errorf("%w: %q has no host", schoolnet.ErrInvalidBaseURL, baseURL)
	}

	apiRef := &url.URL{Path: constants.APIPath}
	tokenRef := &url.URL{Path: constants.TokenPath}

	return base.ResolveReference(apiRef).String(), base.ResolveReference(tokenRef).String(), nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *schoolnet.Config, logger schoolnet.Logger) []http.Option {
	httpOpts := []http.Option{http.WithLogger(logger)}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(config.HTTPClient))
	}

	if config.RetryMax > 0 || config.Backoff != nil {
		retryMax := constants.MaxRetries
		if config.RetryMax > 0 {
			retryMax = config.RetryMax
		}

		backoff := constants.BackoffSchedule()
		if config.Backoff != nil {
			backoff = config.Backoff
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(retryMax, backoff))
	}

	return httpOpts
}
