// Package config loads, normalizes, and validates loom's TOML configuration.
//
// Configuration is resolved from an explicit path, ~/.config/loom/config.toml,
// or a project-local loom.toml, in that order. Missing files fall back to
// repository defaults so loom runs with zero configuration.
package config
