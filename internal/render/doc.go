// Package render composites a page description onto an offscreen surface.
//
// RenderPage sizes the surface to fit the target, paints the background
// color and cover-fitted background image, lays out at most nine cells in a
// near-square grid and paints at most three visible elements per cell in
// list order. Each image element is resolved against its cell, clipped by
// its mask, cover-cropped, filtered and painted. Text elements use the Go
// fonts with an 8px floor and ellipsis truncation.
//
// A failing element is logged and skipped; it never aborts the page.
package render
