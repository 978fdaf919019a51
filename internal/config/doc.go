// Package config provides configuration structures and utilities for PhishGuard.
// It defines the options for the API server, batch analysis, persistence
// and report generation, and loads the optional .phishguard YAML file.
package config
