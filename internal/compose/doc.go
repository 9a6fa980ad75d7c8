// Package compose orchestrates one assembly request end to end.
//
// A request's ordered segments are normalized, decoded into a request-scoped
// scratch directory, and folded through the active-media state machine: video
// segments replace the active base, narration segments overlay onto it, and
// the accumulated chunks are concatenated into the final artifact. Progress
// is recorded on a durable job record at every phase, and the scratch
// directory is removed on success and failure alike. Segment processing
// within one request is strictly sequential; independent requests run
// concurrently with no shared state beyond the job store.
package compose
