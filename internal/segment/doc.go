// Package segment normalizes submitted media payloads into an ordered,
// typed sequence ready for composition.
package segment
