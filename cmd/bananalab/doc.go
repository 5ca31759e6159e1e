// Package main provides the bananalab command, which renders photo-book page
// documents into thumbnail images.
//
// # Commands
//
//	bananalab render <page.json>      render one document
//	bananalab batch <file|dir>        render every document under a path
//	bananalab watch <dir>             render, then re-render on change
//
// Each page of a document becomes <OUTPUT_DIR>/<page id>.<ext>. With --db
// (or DATABASE_PATH) the thumbnails are also upserted into a SQLite store
// keyed by page id.
//
// # Lifecycle
//
//  1. Memory configuration: GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
//  2. Configuration loading from the environment, then flag overrides
//  3. Engine wiring: blob registry, asset cache, filter pipeline, renderer,
//     thumbnail generator and memory monitor
//  4. Optional operational server (METRICS_ENABLED) with /metrics,
//     /healthz, /livez and /version
//  5. Rendering; SIGINT and SIGTERM cancel in-flight work and shut the
//     server down
//
// # Environment Variables
//
//   - OUTPUT_DIR: thumbnail output directory (default: thumbnails)
//   - DATABASE_PATH: SQLite thumbnail store (default: disabled)
//   - OUTPUT_FORMAT: jpeg or png (default: jpeg)
//   - JPEG_QUALITY: 1-100 (default: 80)
//   - FILTER_STRATEGY: auto, fast or pixel (default: auto)
//   - FILTER_WORKERS: filter worker override
//   - ASSET_TIMEOUT: per-asset load timeout (default: 3s)
//   - ASSET_CACHE_CEILING, ASSET_CACHE_FLOOR: asset cache bounds
//   - PRELOAD_BATCH_SIZE: concurrent asset decodes (default: 5)
//   - THUMBNAIL_CACHE_ENTRIES, BLOB_CACHE_ENTRIES: cache sizes
//   - VIPS_ENABLED: decode with libvips shrink-on-load
//   - METRICS_ENABLED, METRICS_PORT: operational server (default port 9090)
//   - LOG_LEVEL: debug, info, warn or error
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: memory backpressure
//
// # Build Requirements
//
// CGO is required for SQLite and, when VIPS_ENABLED is set, libvips.
//
//	go build -o bananalab ./cmd/bananalab
package main
