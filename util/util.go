// Package util is a set of utility variables or methods
package util

import mapset "github.com/deckarep/golang-set/v2"

const (
	// OutputExt is the extension of rendered presentation files.
	OutputExt = ".pptx"
	// SidecarExt replaces OutputExt for the outline saved next to a file.
	SidecarExt = ".json"
)

var SupportedExt = mapset.NewSet(
	OutputExt, ".PPTX",
)
