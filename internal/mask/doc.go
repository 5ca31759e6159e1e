// Package mask builds the geometric clip regions applied to image elements
// before they are painted: circle, ellipse, star, hexagon, triangle and the
// default rectangle. Geometry depends only on the destination rectangle.
package mask
