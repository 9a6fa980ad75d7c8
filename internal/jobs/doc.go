// Package jobs persists composition job records in SQLite.
//
// One row tracks each top-level assembly request: its forward-only status,
// an append-only step log, the scratch directory, and the produced artifact
// with its expiration. The store owns the only durable copy of job state;
// the composer and normalizer stay stateless over jobs. Schema creation is
// guarded by a version table and happens once at Open.
package jobs
