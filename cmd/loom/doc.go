// Command loom is the operator CLI for the loom daemon. It submits
// composition and timeline requests over the daemon's HTTP API and
// inspects job history and daemon health.
package main
