package constants

import "time"

// API paths, resolved against the configured base URL.
const (
	// APIPath is the root of every resource path.
	APIPath = "/api/v1/"

	// TokenPath is the OAuth2 token endpoint.
	TokenPath = "/api/oauth/token"

	// GrantType is the only grant the API supports for service clients.
	GrantType = "client_credentials"

	// ScopePrefix is prepended to a configured scope.
	ScopePrefix = "default_tenant_path:"
)

// Pagination defaults.
const (
	// DefaultLimit is the page size used when the caller does not set one.
	DefaultLimit = 500

	// DefaultOffset is the first offset requested.
	DefaultOffset = 0
)

// Retry limits.
const (
	// MaxRetries is the number of retries for transient GET and token failures.
	MaxRetries = 3

	// TokenSafetyMargin is subtracted from expires_in so a token is never used
	// right at its expiry.
	TokenSafetyMargin = 10 * time.Second
)

// BackoffSchedule returns the default waits between retries, longest first.
func BackoffSchedule() []time.Duration {
	return []time.Duration{5 * time.Minute, 1 * time.Minute, 3 * time.Second}
}

// Omissions lists response fields stripped from every returned object.
func Omissions() []string {
	return []string{"links", "institutionType"}
}

// Query expansions used by resource calls.
const (
	ExpandSection    = "assessmentassignment,course,schedule"
	ExpandIdentifier = "identifier"
	ExpandAssessment = "assessmentquestion,assessmentschedule"

	// AssessmentFilter limits assessments to scored, multiple-choice style tests.
	AssessmentFilter = `teststage=="scheduled inprogress completed";itemtype==MultipleChoice,itemtype==TrueFalse`

	// ModifiedSinceLayout formats the modifiedsince filter (MM-DD-YYYY).
	ModifiedSinceLayout = "01-02-2006"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for a single HTTP attempt.
	DefaultHTTPTimeout = 60 * time.Second

	// DefaultUserAgent identifies the client to the API.
	DefaultUserAgent = "schoolnet-client-go/1.0"
)

// Cache defaults.
const (
	// DefaultCacheSize bounds the memory cache.
	DefaultCacheSize = 1000

	// DefaultNATSBucket is the KV bucket used for shared tokens.
	DefaultNATSBucket = "schoolnet_tokens"
)

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750
)

// Config file location under the user's home directory.
const (
	ConfigDirName  = ".schoolnet"
	ConfigFileName = "config.yml"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)
