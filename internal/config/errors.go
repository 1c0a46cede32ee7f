package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: Package-level sentinels rather than ad-hoc errors so
// callers can branch with errors.Is while the messages stay readable on
// their own.
var (
	// ErrNoServer is returned when the target server is empty.
	ErrNoServer = errors.New("no server specified")

	// ErrInvalidPort is returned when the port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrNoCredentials is returned when username or password is missing.
	// Credentials come from positional arguments or the config file;
	// the crawl cannot start without both.
	ErrNoCredentials = errors.New("missing credentials: username and password are required")

	// ErrInvalidFlagLimit is returned when the flag limit is not positive.
	ErrInvalidFlagLimit = errors.New("invalid flag limit: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are requested. Only one output format applies at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
