package constants

import "errors"

// Configuration errors.
var (
	ErrNoBaseURL      = errors.New("no base URL configured, use --url or set baseUrl in the config file")
	ErrNoClientID     = errors.New("no client id configured, use --client-id or set clientId in the config file")
	ErrNoClientSecret = errors.New("no client secret configured and stdin is not a terminal")
)

// Validation errors.
var (
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidJSONInput    = errors.New("input must be a JSON object")
	ErrUnknownConfigKey    = errors.New("unknown config key")
)
