// Package timeline flattens a timeline description against an asset table
// into the ordered clip list the engine trims and concatenates.
package timeline
