// Package startup loads configuration from the environment and prints the
// lifecycle banners of the bananalab CLI.
//
// # Configuration
//
// [LoadConfig] reads the following variables:
//
//   - OUTPUT_DIR: where rendered thumbnails are written (default: ./thumbnails)
//   - DATABASE_PATH: SQLite thumbnail store; empty disables the store
//   - METRICS_ENABLED: serve /metrics, /healthz and /version (default: false)
//   - METRICS_PORT: port of that server (default: 9090)
//   - ASSET_TIMEOUT: per-asset load timeout as a Go duration (default: 3s)
//   - ASSET_CACHE_CEILING / ASSET_CACHE_FLOOR: decoded asset cache bounds (default: 20 / 10)
//   - THUMBNAIL_CACHE_ENTRIES: encoded thumbnail cache size (default: 64)
//   - PRELOAD_BATCH_SIZE: concurrent asset loads per batch (default: 5)
//   - JPEG_QUALITY: 1-100 (default: 80)
//   - OUTPUT_FORMAT: jpeg or png (default: jpeg)
//   - FILTER_STRATEGY: auto, fast or pixel (default: auto)
//   - VIPS_ENABLED: shrink oversized assets with libvips (default: false)
//   - BLOB_CACHE_ENTRIES: keyed blob handles kept alive (default: 32)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// Invalid values log a warning and fall back to the default; only values
// that contradict each other are returned as errors.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
