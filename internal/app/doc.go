// Package app wires the rendering engine for the CLI: blob registry, asset
// cache, filter pipeline, renderer, thumbnail generator, memory monitor and
// the optional SQLite store.
//
// Page documents are prepared before rendering. Relative image paths are
// anchored to the document's directory and inline data URIs are swapped for
// blob handles keyed by page and element, so an unchanged document keeps
// its fingerprint and its cached thumbnails across reloads.
package app
