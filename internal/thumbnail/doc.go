// Package thumbnail generates, encodes and caches page thumbnails.
//
// A Generator turns one page or a list of pages into encoded rasters. It
// preloads the assets a page touches, renders it, encodes the surface as
// JPEG or PNG and stores the result in a size-keyed Cache. Batches preload
// the union of all assets in fixed-size batches, then render pages one at
// a time in input order. A page that fails in a batch gets a placeholder
// (a solid color by page type with a centered label), so every requested
// page yields something displayable.
package thumbnail
