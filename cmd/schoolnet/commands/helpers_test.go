package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
	"github.com/gradecam/schoolnet-client/pkg/snclient"
)

// schoolnetServer fakes the token endpoint and a few API resources.
type schoolnetServer struct {
	*httptest.Server

	mu   sync.Mutex
	puts []map[string]interface{}
	seen []string
}

func newSchoolnetServer(t *testing.T) *schoolnetServer {
	t.Helper()

	srv := &schoolnetServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.mu.Lock()
		srv.seen = append(srv.seen, r.Method+" "+r.URL.RequestURI())
		srv.mu.Unlock()

		switch {
		case r.URL.Path == "/api/oauth/token":
			writeJSON(w, map[string]interface{}{"access_token": "cli-token-123456", "expires_in": 3600})
		case r.URL.Path == "/api/v1/districts":
			writeJSON(w, map[string]interface{}{"data": []map[string]interface{}{
				{"institutionId": "1", "name": "North", "links": []string{"self"}},
			}})
		case r.URL.Path == "/api/v1/districts/1/schools":
			writeJSON(w, map[string]interface{}{"data": []map[string]interface{}{
				{"institutionId": "10", "name": "Lincoln", "institutionType": "School"},
			}})
		case r.URL.Path == "/api/v1/tenants":
			writeJSON(w, map[string]interface{}{"data": []map[string]interface{}{{"tenantPath": "north"}}})
		case r.URL.Path == "/api/v1/assessments":
			writeJSON(w, map[string]interface{}{"data": []map[string]interface{}{
				{"instanceId": "a-1", "name": "Quiz"},
				{"name": "draft"},
			}})
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/assessments/a-1/studentAssessments":
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)

			srv.mu.Lock()
			srv.puts = append(srv.puts, body)
			srv.mu.Unlock()

			writeJSON(w, map[string]interface{}{"data": body})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

func (s *schoolnetServer) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.seen...)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// useServer points the global configuration at srv and silences client logs.
func useServer(t *testing.T, srv *schoolnetServer) {
	t.Helper()

	viper.Reset()
	viper.Set("url", srv.URL)
	viper.Set("client_id", "cli")
	viper.Set("client_secret", "secret-value")
	viper.Set("output", "json")

	clientFactory = func(ctx context.Context, config *schoolnet.Config) (*snclient.Client, error) {
		config.Logger = schoolnet.NewLogrusLogger(io.Discard)

		return snclient.New(ctx, config)
	}

	t.Cleanup(func() {
		viper.Reset()
		clientFactory = snclient.New
	})
}

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := &cobra.Command{Use: "schoolnet", SilenceUsage: true, SilenceErrors: true}
	AddCommands(root, "1.2.3", "abc123", "2026-01-01")

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func decodeList(t *testing.T, out string) []map[string]interface{} {
	t.Helper()

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &records))

	return records
}

func decodeObject(t *testing.T, out string) map[string]interface{} {
	t.Helper()

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &record))

	return record
}
