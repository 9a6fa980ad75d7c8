// Package cleanup reclaims expired composition artifacts on a fixed
// interval so completed outputs do not accumulate on disk forever.
package cleanup
