package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/gradecam/schoolnet-client/internal/constants"
	snhttp "github.com/gradecam/schoolnet-client/internal/http"
	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// tokenResponse is the token endpoint payload.
type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type,omitempty"`
	ExpiresIn   json.Number `json:"expires_in"`
}

// lifetime reads expires_in, which some servers send as a string. An absent
// or unparsable value counts as zero.
func (r *tokenResponse) lifetime() time.Duration {
	seconds, err := r.ExpiresIn.Float64()
	if err != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// TokenCache hands out a bearer token, fetching a new one only once the
// cached token has passed its expiry. Concurrent callers that all find the
// token expired each fetch; the last response wins.
type TokenCache struct {
	http        *snhttp.Client
	tokenURL    string
	credentials Credentials
	logger      schoolnet.Logger
	store       schoolnet.Cache
	now         func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

// TokenCacheOption configures a TokenCache.
type TokenCacheOption func(*TokenCache)

// WithLogger sets the logger.
func WithLogger(logger schoolnet.Logger) TokenCacheOption {
	return func(c *TokenCache) {
		c.logger = logger
	}
}

// WithStore shares tokens through store, so separate processes using the same
// credentials reuse one token.
func WithStore(store schoolnet.Cache) TokenCacheOption {
	return func(c *TokenCache) {
		c.store = store
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenCacheOption {
	return func(c *TokenCache) {
		c.now = now
	}
}

// NewTokenCache posts credentials to tokenURL through client. client must not
// carry a token manager of its own.
func NewTokenCache(client *snhttp.Client, tokenURL string, credentials Credentials, opts ...TokenCacheOption) *TokenCache {
	cache := &TokenCache{
		http:        client,
		tokenURL:    tokenURL,
		credentials: credentials,
		logger:      schoolnet.NopLogger{},
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// GetToken returns the cached token, refreshing it first when expired.
func (c *TokenCache) GetToken(ctx context.Context) (string, error) {
	token, err := c.current(ctx)
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

// Token implements oauth2.TokenSource.
func (c *TokenCache) Token() (*oauth2.Token, error) {
	token, err := c.current(context.Background())
	if err != nil {
		return nil, err
	}

	copied := *token

	return &copied, nil
}

// State returns the cached token without refreshing it, or nil.
func (c *TokenCache) State() *oauth2.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return nil
	}

	copied := *c.token

	return &copied
}

// Warm adopts a valid token from the shared store without contacting the
// token endpoint. It reports whether one was found.
func (c *TokenCache) Warm(ctx context.Context) bool {
	shared := c.loadShared(ctx)
	if shared == nil {
		return false
	}

	c.setToken(shared)

	return true
}

// Invalidate forgets the cached token, locally and in the shared store.
func (c *TokenCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()

	if c.store != nil {
		err := c.store.Delete(ctx, c.storeKey())
		if err != nil {
			c.logger.Warn("Failed to drop shared token", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (c *TokenCache) current(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if c.valid(token) {
		c.logger.Debug("Using existing token.", nil)

		return token, nil
	}

	if shared := c.loadShared(ctx); shared != nil {
		c.setToken(shared)

		return shared, nil
	}

	fresh, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.setToken(fresh)
	c.saveShared(ctx, fresh)

	return fresh, nil
}

func (c *TokenCache) valid(token *oauth2.Token) bool {
	return token != nil && token.AccessToken != "" && c.now().Before(token.Expiry)
}

func (c *TokenCache) setToken(token *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
}

func (c *TokenCache) fetch(ctx context.Context) (*oauth2.Token, error) {
	c.logger.Info("Requesting access token...", map[string]interface{}{"token_url": c.tokenURL})

	start := c.now()

	resp, err := c.http.PostForm(ctx, c.tokenURL, c.credentials.Values())
	if err != nil {
		apiErr, ok := schoolnet.AsAPIError(err)
		if ok {
			return nil, &schoolnet.AuthenticationError{StatusCode: apiErr.StatusCode, Body: apiErr.Body}
		}

		return nil, fmt.Errorf("requesting access token: %w", err)
	}

	var payload tokenResponse

	err = json.Unmarshal(resp.Body, &payload)
	if err != nil || payload.AccessToken == "" {
		c.logger.Error("Token response has no access_token", map[string]interface{}{
			"status": resp.StatusCode,
		})

		return nil, &schoolnet.AuthenticationError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	tokenType := payload.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	token := &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   tokenType,
		Expiry:      start.Add(payload.lifetime() - constants.TokenSafetyMargin),
	}

	c.logger.Info("Access token obtained", map[string]interface{}{
		"expires_at": token.Expiry.Format(time.RFC3339),
	})

	return token, nil
}

func (c *TokenCache) storeKey() string {
	sum := sha256.Sum256([]byte(c.tokenURL + "|" + c.credentials.ClientID + "|" + c.credentials.Scope))

	return "token." + hex.EncodeToString(sum[:])
}

func (c *TokenCache) loadShared(ctx context.Context) *oauth2.Token {
	if c.store == nil {
		return nil
	}

	entry, err := c.store.Get(ctx, c.storeKey())
	if err != nil {
		if !errors.Is(err, schoolnet.ErrKeyNotFound) && !errors.Is(err, schoolnet.ErrEntryExpired) &&
			!errors.Is(err, schoolnet.ErrCacheDisabled) && !errors.Is(err, schoolnet.ErrKeyNotFoundInAnyCache) {
			c.logger.Warn("Failed to read shared token", map[string]interface{}{"error": err.Error()})
		}

		return nil
	}

	var token oauth2.Token

	err = json.Unmarshal(entry.Data, &token)
	if err != nil || !c.valid(&token) {
		return nil
	}

	c.logger.Debug("Using shared token.", nil)

	return &token
}

func (c *TokenCache) saveShared(ctx context.Context, token *oauth2.Token) {
	if c.store == nil {
		return
	}

	data, err := json.Marshal(token)
	if err != nil {
		return
	}

	err = c.store.Set(ctx, c.storeKey(), &schoolnet.CacheEntry{Data: data, ExpiresAt: token.Expiry})
	if err != nil {
		c.logger.Warn("Failed to share token", map[string]interface{}{"error": err.Error()})
	}
}
