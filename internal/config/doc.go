// Package config holds the runtime configuration for flagscan: CLI-driven
// settings, the optional .flagscan YAML file with per-site credentials,
// and XDG directory resolution for persistent data.
package config
