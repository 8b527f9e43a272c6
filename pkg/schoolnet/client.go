package schoolnet

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RosterClient provides access to the district, school, section and people endpoints.
type RosterClient interface {
	GetDistricts(ctx context.Context) ([]Record, error)
	GetSchools(ctx context.Context, district Ref, opts *ListOptions) ([]Record, error)
	GetSchool(ctx context.Context, school Ref, opts *ListOptions) (Record, error)
	GetSections(ctx context.Context, school Ref, opts *ListOptions) ([]Record, error)
	GetSection(ctx context.Context, section Ref) (Record, error)
	GetStudents(ctx context.Context, section Ref, opts *ListOptions) ([]Record, error)
	GetStaff(ctx context.Context, staff Ref, opts *ListOptions) (Record, error)
	GetStaffSections(ctx context.Context, staff Ref) ([]Record, error)
	GetTenants(ctx context.Context) ([]Record, error)
}

// AssessmentClient provides access to assessments and student results.
type AssessmentClient interface {
	GetAssessments(ctx context.Context, opts *AssessmentsOptions) ([]Record, error)
	GetAssessment(ctx context.Context, assessment Ref) (Record, error)
	PutStudentAssessment(ctx context.Context, studentAssessment Record) *WriteResult
}

type Client interface {
	RosterClient
	AssessmentClient

	// SetLogLevel adjusts the verbosity of the configured Logger.
	SetLogLevel(level string) error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// LevelSetter is implemented by loggers whose verbosity can be changed at runtime.
type LevelSetter interface {
	SetLevel(level string) error
}

// Config represents client configuration for building a schoolnet.Client.
//
// BaseURL is resolved against two fixed paths: "/api/v1/" for resources and
// "/api/oauth/token" for the token endpoint, so any path on BaseURL is
// ignored.
//
// # Retries
//
// GET requests that fail with a connection reset or timeout are retried
// RetryMax times, waiting Backoff[n] before retry n. The default schedule
// waits 5 minutes, then 1 minute, then 3 seconds. PUT requests are never
// retried.
type Config struct {
	// BaseURL: the district's Schoolnet host (e.g., "https://district.schoolnet.com").
	BaseURL string
	// ClientID: OAuth2 client ID for the client_credentials grant.
	ClientID string
	// ClientSecret: OAuth2 client secret used with ClientID.
	ClientSecret string
	// Scope: optional tenant path; sent as "default_tenant_path:<scope>".
	Scope string

	// Logger: structured logger used by every layer. Defaults to a logrus logger.
	Logger Logger
	// LogLevel: initial level applied to Logger when it implements LevelSetter.
	LogLevel string
	// Debug: enables request/response logging in the HTTP layer.
	Debug bool
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// HTTPTimeout: per-attempt timeout enforced by the transport. Zero keeps the default.
	HTTPTimeout time.Duration
	// HTTPClient: optional base client, mostly useful to inject a transport in tests.
	HTTPClient *http.Client
	// RetryMax: retries for transient GET and token failures. Zero keeps the default (3).
	RetryMax int
	// Backoff: wait before each retry, longest first. Nil keeps the default schedule.
	Backoff []time.Duration
	// TokenCache: optional shared store for access tokens (memory, NATS KV).
	TokenCache Cache
}

var configAliases = map[string][]string{
	"clientId":     {"clientId", "client_id"},
	"clientSecret": {"clientSecret", "client_secret"},
	"scope":        {"scope"},
	"baseUrl":      {"baseUrl", "url", "baseURL"},
}

// ConfigFromMap builds a Config from a loosely keyed map such as a decoded JSON
// config file. The first non-empty alias wins:
// clientId|client_id, clientSecret|client_secret, scope, baseUrl|url|baseURL.
func ConfigFromMap(values map[string]interface{}) *Config {
	lookup := func(key string) string {
		for _, alias := range configAliases[key] {
			if v, ok := values[alias]; ok && v != nil {
				s := fmt.Sprint(v)
				if s != "" {
					return s
				}
			}
		}

		return ""
	}

	return &Config{
		ClientID:     lookup("clientId"),
		ClientSecret: lookup("clientSecret"),
		Scope:        lookup("scope"),
		BaseURL:      lookup("baseUrl"),
	}
}

// ConfigKeyAliases returns the accepted spellings for a canonical config key
// (clientId, clientSecret, scope, baseUrl).
func ConfigKeyAliases(key string) []string {
	return append([]string(nil), configAliases[key]...)
}
