// Package preflight provides readiness checks for the external transcode
// binary and the filesystem paths Loom depends on.
//
// The daemon runs Require once at startup and refuses to serve with a
// broken environment; the CLI status command renders the individual
// results so an operator can see exactly what is missing.
package preflight
