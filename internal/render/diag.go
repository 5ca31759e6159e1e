//go:build !bananadebug

package render

import "image"

// dumpSurface is a no-op outside bananadebug builds.
func dumpSurface(string, image.Image) {}
