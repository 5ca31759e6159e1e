// Package coverfit computes "cover" cropping: the centered source
// sub-rectangle that fills a destination without distortion, the
// equivalent of CSS object-fit: cover. The crop is done by the renderer so
// the encoded raster is correct without any display layer.
package coverfit
