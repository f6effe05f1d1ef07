// Package config provides the configuration structures and loaders for intelscan.
// Settings are resolved in order: built-in defaults, the YAML configuration
// file, environment variables, and finally command-line flags.
package config
