// Package logs reads the daemon log file incrementally for the CLI.
package logs
