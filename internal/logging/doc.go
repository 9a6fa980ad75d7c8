// Package logging assembles the structured slog loggers used across loom.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so composition code can tag log
// lines with job identifiers, phases, and correlation IDs. A no-op logger is
// provided for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing.
package logging
