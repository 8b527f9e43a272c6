package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/gradecam/schoolnet-client/internal/auth"
	snhttp "github.com/gradecam/schoolnet-client/internal/http"
	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type tokenServer struct {
	*httptest.Server

	hits  atomic.Int32
	forms chan map[string][]string
}

func newTokenServer(t *testing.T, handler func(w http.ResponseWriter, n int32)) *tokenServer {
	t.Helper()

	ts := &tokenServer{forms: make(chan map[string][]string, 16)}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/oauth/token", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		require.NoError(t, r.ParseForm())

		select {
		case ts.forms <- r.PostForm:
		default:
		}

		handler(w, ts.hits.Add(1))
	}))
	t.Cleanup(ts.Close)

	return ts
}

func issue(token string, expiresIn int) func(http.ResponseWriter, int32) {
	return func(w http.ResponseWriter, n int32) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": token,
			"expires_in":   expiresIn,
		})
	}
}

func newCache(ts *tokenServer, clock *fakeClock, opts ...auth.TokenCacheOption) *auth.TokenCache {
	client := snhttp.NewClient(ts.URL+"/api/v1/", nil,
		snhttp.WithRetryConfig(3, []time.Duration{time.Millisecond}),
	)

	opts = append([]auth.TokenCacheOption{auth.WithClock(clock.Now)}, opts...)

	return auth.NewTokenCache(client, ts.URL+"/api/oauth/token",
		auth.NewCredentials("id", "secret", "tenant"), opts...)
}

func TestTokenCache_GetToken(t *testing.T) {
	t.Parallel()

	t.Run("reuses token before expiry", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, issue("tok-1", 3600))
		clock := newFakeClock()
		cache := newCache(ts, clock)

		for i := 0; i < 3; i++ {
			token, err := cache.GetToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "tok-1", token)
		}

		assert.Equal(t, int32(1), ts.hits.Load())
	})

	t.Run("expiry includes safety margin", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, issue("tok", 3600))
		clock := newFakeClock()
		start := clock.Now()
		cache := newCache(ts, clock)

		_, err := cache.GetToken(context.Background())
		require.NoError(t, err)

		state := cache.State()
		require.NotNil(t, state)
		assert.Equal(t, start.Add(3590*time.Second), state.Expiry)
	})

	t.Run("expires_in sent as a string", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, func(w http.ResponseWriter, n int32) {
			_, _ = w.Write([]byte(`{"access_token":"tok-s","expires_in":"3600"}`))
		})
		clock := newFakeClock()
		start := clock.Now()
		cache := newCache(ts, clock)

		token, err := cache.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-s", token)

		state := cache.State()
		require.NotNil(t, state)
		assert.Equal(t, start.Add(3590*time.Second), state.Expiry)
	})

	t.Run("missing expires_in expires at once", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, func(w http.ResponseWriter, n int32) {
			_, _ = w.Write([]byte(`{"access_token":"tok-n"}`))
		})
		clock := newFakeClock()
		cache := newCache(ts, clock)

		token, err := cache.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-n", token)

		_, err = cache.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), ts.hits.Load())
	})

	t.Run("refetches exactly once per expiry", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, func(w http.ResponseWriter, n int32) {
			issue("tok-"+string(rune('0'+n)), 60)(w, n)
		})
		clock := newFakeClock()
		cache := newCache(ts, clock)

		token, err := cache.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)

		clock.Advance(49 * time.Second)

		token, err = cache.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)

		clock.Advance(time.Second)

		for i := 0; i < 2; i++ {
			token, err = cache.GetToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "tok-2", token)
		}

		assert.Equal(t, int32(2), ts.hits.Load())
	})

	t.Run("missing access token is an authentication error", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, func(w http.ResponseWriter, n int32) {
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
		})
		cache := newCache(ts, newFakeClock())

		_, err := cache.GetToken(context.Background())
		require.ErrorIs(t, err, schoolnet.ErrAuthenticationFailed)

		var authErr *schoolnet.AuthenticationError

		require.ErrorAs(t, err, &authErr)
		assert.Contains(t, string(authErr.Body), "invalid_client")
		assert.Equal(t, int32(1), ts.hits.Load())
	})

	t.Run("error status is an authentication error", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, func(w http.ResponseWriter, n int32) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		})
		cache := newCache(ts, newFakeClock())

		_, err := cache.GetToken(context.Background())

		var authErr *schoolnet.AuthenticationError

		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
		assert.True(t, schoolnet.IsUnauthorized(err))
		assert.Equal(t, int32(1), ts.hits.Load())
	})

	t.Run("invalidate forces a new fetch", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, issue("tok", 3600))
		cache := newCache(ts, newFakeClock())

		_, err := cache.GetToken(context.Background())
		require.NoError(t, err)

		cache.Invalidate(context.Background())
		assert.Nil(t, cache.State())

		_, err = cache.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), ts.hits.Load())
	})
}

type flakyTransport struct {
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	n := f.calls.Add(1)
	if n <= f.failures.Load() {
		return nil, syscall.ECONNREFUSED
	}

	return http.DefaultTransport.RoundTrip(req)
}

func TestTokenCache_NetworkRetries(t *testing.T) {
	t.Parallel()

	t.Run("recovers after network failures", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, issue("tok", 3600))
		transport := &flakyTransport{}
		transport.failures.Store(2)

		client := snhttp.NewClient(ts.URL, nil,
			snhttp.WithHTTPClient(&http.Client{Transport: transport}),
			snhttp.WithRetryConfig(3, []time.Duration{time.Millisecond}),
		)
		cache := auth.NewTokenCache(client, ts.URL+"/api/oauth/token", auth.NewCredentials("id", "secret", ""))

		token, err := cache.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok", token)
		assert.Equal(t, int32(3), transport.calls.Load())
	})

	t.Run("surfaces the error once retries run out", func(t *testing.T) {
		t.Parallel()

		transport := &flakyTransport{}
		transport.failures.Store(10)

		client := snhttp.NewClient("http://schoolnet.invalid", nil,
			snhttp.WithHTTPClient(&http.Client{Transport: transport}),
			snhttp.WithRetryConfig(3, []time.Duration{time.Millisecond}),
		)
		cache := auth.NewTokenCache(client, "http://schoolnet.invalid/api/oauth/token", auth.NewCredentials("id", "secret", ""))

		_, err := cache.GetToken(context.Background())
		require.Error(t, err)
		require.ErrorIs(t, err, syscall.ECONNREFUSED)
		assert.False(t, errors.Is(err, schoolnet.ErrAuthenticationFailed))
		assert.Equal(t, int32(4), transport.calls.Load())
	})
}

func TestTokenCache_SharedStore(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t, issue("shared-tok", 3600))
	store := schoolnet.NewMemoryCache(10)
	clock := &fakeClock{now: time.Now()}

	first := newCache(ts, clock, auth.WithStore(store))
	second := newCache(ts, clock, auth.WithStore(store))

	token, err := first.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shared-tok", token)

	token, err = second.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shared-tok", token)
	assert.Equal(t, int32(1), ts.hits.Load())

	third := newCache(ts, clock, auth.WithStore(store))
	assert.True(t, third.Warm(context.Background()))
	require.NotNil(t, third.State())
	assert.Equal(t, "shared-tok", third.State().AccessToken)

	assert.False(t, newCache(ts, clock).Warm(context.Background()), "no store, nothing to adopt")
	assert.Equal(t, int32(1), ts.hits.Load())

	second.Invalidate(context.Background())
	first.Invalidate(context.Background())
	assert.False(t, newCache(ts, clock, auth.WithStore(store)).Warm(context.Background()))

	_, err = first.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), ts.hits.Load())
}

func TestTokenCache_TokenSource(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t, issue("tok", 3600))
	cache := newCache(ts, newFakeClock())

	token, err := cache.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)

	form := <-ts.forms
	assert.Equal(t, []string{"id"}, form["client_id"])
	assert.Equal(t, []string{"secret"}, form["client_secret"])
	assert.Equal(t, []string{"client_credentials"}, form["grant_type"])
	assert.Equal(t, []string{"default_tenant_path:tenant"}, form["scope"])
}
