//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
	"github.com/gradecam/schoolnet-client/pkg/snclient"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Scope        string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		BaseURL:      os.Getenv("SCHOOLNET_URL"),
		ClientID:     os.Getenv("SCHOOLNET_CLIENT_ID"),
		ClientSecret: os.Getenv("SCHOOLNET_CLIENT_SECRET"),
		Scope:        os.Getenv("SCHOOLNET_SCOPE"),
		Verbose:      os.Getenv("SCHOOLNET_VERBOSE") == "true",
	}
}

// IsValid checks that a live server is configured.
func (c *TestConfig) IsValid() bool {
	return c.BaseURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

// newLiveClient skips the test unless SCHOOLNET_* credentials are set.
func newLiveClient(t *testing.T) *snclient.Client {
	t.Helper()

	config := LoadTestConfig()
	if !config.IsValid() {
		t.Skip("Skipping integration test: SCHOOLNET_URL, SCHOOLNET_CLIENT_ID and SCHOOLNET_CLIENT_SECRET must be set")
	}

	logLevel := "warn"
	if config.Verbose {
		logLevel = "debug"
	}

	client, err := snclient.New(context.Background(), &schoolnet.Config{
		BaseURL:      config.BaseURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scope:        config.Scope,
		LogLevel:     logLevel,
		Debug:        config.Verbose,
	})
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	return client
}
