// Package notifications delivers job lifecycle events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The runner and sweeper depend only on the Service interface, so
// alternative transports slot in without touching composition code.
package notifications
