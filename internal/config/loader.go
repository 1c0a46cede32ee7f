package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name searched for when no
// explicit path is given.
const DefaultConfigFile = ".flagscan"

// ErrConfigNotFound is returned when the configuration file does not
// exist. Callers decide whether that matters: an explicitly requested
// path that is missing is an error, a missing default is not.
var ErrConfigNotFound = errors.New("configuration file not found")

// SiteConfig holds per-site settings: the credentials to log in with and
// any extra headers to send on every request.
type SiteConfig struct {
	// Username and Password authenticate against this site.
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// Port overrides the default HTTPS port for this site.
	Port int `yaml:"port,omitempty"`

	// Headers are extra HTTP headers for every request to this site.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File is the parsed .flagscan configuration file.
type File struct {
	// Sites maps hostnames to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// LoadConfigFile parses a .flagscan YAML file.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}
	return &cf, nil
}

// FindConfigFile resolves the configuration file location:
//  1. the explicit path, if given
//  2. .flagscan in the current directory
//  3. .flagscan in the user's home directory
//
// Returns "" when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// GetSiteConfig returns the settings for a host, merging site-specific
// values over the file's defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if site.Username != "" {
		result.Username = site.Username
	}
	if site.Password != "" {
		result.Password = site.Password
	}
	if site.Port != 0 {
		result.Port = site.Port
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	return result
}
