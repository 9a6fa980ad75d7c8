// Package apiclient is the CLI side of the daemon's HTTP API. It speaks the
// payload shapes defined in the api package and turns transport failures
// into operator-readable errors.
package apiclient
