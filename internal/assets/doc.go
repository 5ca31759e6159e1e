// Package assets loads and memoizes decoded bitmaps by source reference.
//
// References may be http(s) URLs, data URIs, blob handles issued by
// package blob, file:// URLs or plain paths. Loads never return an error
// to the renderer: Preload logs the failure and returns nil so the element
// is skipped. Each load is bounded by a timeout (3s by default).
//
// The cache is capacity bounded. Once it holds more than the ceiling, the
// least recently used entries are dropped down to the floor. Entries that
// an in-flight generation has pinned survive eviction until unpinned, so a
// render never loses an image it is using.
package assets
