// Package hktransit holds build information for the hktransit command.
package hktransit

var (
	// Version of hktransit, set by ldflags during release builds.
	Version = "v0.1.0"

	// Build timestamp, set by ldflags during release builds.
	Build = "n/a"
)
