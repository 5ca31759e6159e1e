// Package page defines the page model consumed by the renderer: pages,
// cells, and image/text elements with their filters and masks.
//
// Positions and sizes use a mixed unit convention inherited from the editor:
// a value <= 1 is a fraction of the cell, anything larger is absolute page
// pixels. ResolveUnit is the only place that interprets this convention.
package page
