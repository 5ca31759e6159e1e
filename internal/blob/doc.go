// Package blob rewrites data URIs into short revocable handles so large
// inline payloads are decoded once and released explicitly.
//
// Handles look like "blob:bananalab/<uuid>". A keyed conversion is cached
// so repeated calls with the same source and key return the same handle.
// Every handle can be revoked exactly once; later releases are no-ops.
package blob
