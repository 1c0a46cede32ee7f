package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultServer is the host the crawl targets when -s is not given.
	DefaultServer = "fakebook.khoury.northeastern.edu"

	// DefaultPort is the HTTPS port.
	DefaultPort = 443

	// DefaultFlagLimit is the number of flags that completes a run.
	// The target site hides exactly five per account.
	DefaultFlagLimit = 5

	// DefaultBatchSize caps concurrent site crawls when the batch mode
	// is used. Each crawl keeps its own single socket; the cap only
	// bounds how many independent sites run at once.
	DefaultBatchSize = 4

	// AppName is used for XDG directory paths.
	AppName = "flagscan"
)

// Config holds all options for a flagscan invocation.
//
// Design decision: One flat struct populated from CLI flags and passed by
// dependency injection, not global state. The option count is small
// enough that nesting would add ceremony without clarity.
type Config struct {
	// Server is the target host to crawl.
	Server string

	// Port is the TCP port to connect to.
	Port int

	// Username and Password authenticate the crawl. Taken from
	// positional arguments, or from the config file entry for Server
	// when the arguments are absent.
	Username string
	Password string

	// Headers are extra HTTP headers sent on every request, taken from
	// the config file entry for Server.
	Headers map[string]string

	// FlagLimit is the number of flag extractions that ends the run.
	FlagLimit int

	// Verbose enables slog.LevelDebug output; otherwise only warnings
	// and errors are logged.
	Verbose bool

	// JSONReport and MarkdownReport select a structured report format.
	// Mutually exclusive. When neither is set, only the flags are
	// printed, one per line.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is an explicit .flagscan path; empty means search
	// the working directory and then the home directory.
	ConfigFilePath string

	// Sites holds per-site settings loaded from the config file.
	Sites *File

	// All crawls every site in the config file instead of a single
	// target.
	All bool

	// BatchSize caps concurrent site crawls in --all mode.
	BatchSize int

	// DBDir is the directory holding the crawl-history database.
	// Empty disables persistence.
	DBDir string

	// SaveToDB records each run in the database for later history
	// queries.
	SaveToDB bool
}

// NewConfig returns a Config with defaults applied.
func NewConfig() *Config {
	return &Config{
		Server:    DefaultServer,
		Port:      DefaultPort,
		FlagLimit: DefaultFlagLimit,
		BatchSize: DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for flagscan, where the
// crawl-history database lives.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for flagscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration, returning the first problem found.
// Called once after flag parsing, before any network activity.
func (c *Config) Validate() error {
	if c.Server == "" && !c.All {
		return ErrNoServer
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if !c.All && (c.Username == "" || c.Password == "") {
		return ErrNoCredentials
	}
	if c.FlagLimit <= 0 {
		return ErrInvalidFlagLimit
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
