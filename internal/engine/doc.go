// Package engine wraps invocation of the external ffmpeg transcoding engine.
//
// The engine is treated as an opaque capability: it accepts input references
// and either simple output options or a filter graph with explicit stream
// mappings, and it either fully writes the destination or fails. Every
// invocation carries a hard wall-clock timeout enforced through context
// cancellation, and a timed-out process is killed rather than left running.
// Timeout failures are distinguishable from engine-reported failures via the
// services error markers.
package engine
