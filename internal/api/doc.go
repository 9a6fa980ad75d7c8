// Package api defines the JSON payload shapes shared by the daemon's HTTP
// surface and the CLI, plus converters from internal models. Keeping the
// views here means the daemon and the CLI cannot drift apart on field names.
package api
