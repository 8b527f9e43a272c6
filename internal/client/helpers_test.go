package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	internalhttp "github.com/gradecam/schoolnet-client/internal/http"
	"github.com/stretchr/testify/require"
)

// recordedRequest is one call seen by a fakeAPI.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]interface{}
}

// fakeAPI serves canned responses under /api/v1/ and records every request.
type fakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{handlers: map[string]http.HandlerFunc{}}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}

		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}

		api.mu.Lock()
		api.requests = append(api.requests, rec)
		handler, ok := api.handlers[r.Method+" "+r.URL.Path]
		api.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no handler"}`))

			return
		}

		handler(w, r)
	}))
	t.Cleanup(api.Close)

	return api
}

func (a *fakeAPI) handle(method, path string, handler http.HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.handlers[method+" /api/v1/"+path] = handler
}

// respond replies with {"data": data}.
func (a *fakeAPI) respond(method, path string, data interface{}) {
	a.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, data)
	})
}

// paginate serves total generated items honouring limit and offset. With
// nullPastEnd, requests starting at or past total get {"data": null}.
func (a *fakeAPI) paginate(path string, total int, nullPastEnd bool) {
	a.handle(http.MethodGet, path, func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		if nullPastEnd && offset >= total {
			writeData(w, nil)

			return
		}

		items := []map[string]interface{}{}
		for i := offset; i < total && i < offset+limit; i++ {
			items = append(items, map[string]interface{}{
				"id":              strconv.Itoa(i),
				"links":           []string{"self"},
				"institutionType": "District",
			})
		}

		writeData(w, items)
	})
}

func (a *fakeAPI) recorded() []recordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]recordedRequest(nil), a.requests...)
}

func (a *fakeAPI) offsets() []string {
	var out []string
	for _, req := range a.recorded() {
		out = append(out, req.Query.Get("offset"))
	}

	return out
}

func writeData(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

// newTestClient returns a client talking to api without authentication.
func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()

	httpClient := internalhttp.NewClient(api.URL+"/api/v1/", nil)
	client := New(httpClient, nil, nil)
	require.NotNil(t, client)

	return client
}
