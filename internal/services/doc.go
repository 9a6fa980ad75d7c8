// Package services defines the shared error taxonomy and context annotations
// used across loom components.
//
// Errors raised by the normalizer, engine client, job store, and sweeper are
// wrapped with sentinel markers so transport layers can classify them with
// errors.Is without depending on concrete types. Context helpers carry job,
// phase, and correlation identifiers that the logging package lifts onto
// structured log lines.
package services
