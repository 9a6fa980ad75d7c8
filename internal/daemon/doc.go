// Package daemon wires the composition runner, job store, cleanup sweeper,
// and HTTP API into a single-instance background process. A file lock in
// the log directory prevents two daemons from sharing one database.
package daemon
