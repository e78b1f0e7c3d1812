// Package config handles configuration loading and management for rq.
//
// It provides functionality for:
//   - Loading configuration from .rq.json, rq.json, .rq.yaml or .rq.yml files
//   - Default configuration values
//   - Merging file settings with command line overrides
package config
