// Package canvas provides the offscreen drawing surface used to composite
// pages. A Context wraps an *image.RGBA together with a clip mask and a
// Save/Restore stack, so callers can clip to arbitrary vector paths and
// undo the clip on every exit path.
package canvas
