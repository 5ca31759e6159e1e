// Package metrics provides Prometheus instrumentation for the page preview
// renderer.
//
// All metrics are prefixed with "bananalab_" and registered through
// promauto, so importing the package is enough to make them available on
// the default registry.
//
// # Metric Categories
//
// ## Asset Metrics
//
// Track image loading and the decoded-asset cache:
//   - AssetLoadsTotal: Counter by source (http/data/blob/file) and status (success/error/timeout)
//   - AssetLoadDuration: Histogram of fetch and decode time by source
//   - AssetCacheHits / AssetCacheMisses: Cache lookups
//   - AssetCacheEntries: Gauge of cached bitmaps
//   - AssetCacheHeld: Gauge of evicted bitmaps kept alive by in-flight generations
//   - AssetPreloadInFlight: Gauge of decodes currently running
//
// ## Filter Metrics
//
//   - FilterApplicationsTotal: Counter by strategy (fast/pixel/none) and status
//   - FilterDuration: Histogram of pipeline time by strategy
//   - FilterFastAvailable: 1 when the composed chain passed its capability check
//
// ## Render and Thumbnail Metrics
//
//   - PageRenderDuration: Histogram of compositing time
//   - ElementsRenderedTotal: Counter by element type and status
//   - ThumbnailGenerationsTotal: Counter by status (success/cached/placeholder/error)
//   - ThumbnailGenerationDuration: Histogram by phase (assets/render/encode)
//   - ThumbnailCacheHits / ThumbnailCacheMisses / ThumbnailCacheCount / ThumbnailCacheSize
//   - ThumbnailBatchDuration / ThumbnailBatchPages
//
// ## Blob Metrics
//
//   - BlobHandlesActive / BlobHandlesIssued / BlobHandlesRevoked / BlobBytesActive
//
// ## Memory, Watch and Store Metrics
//
//   - MemoryUsageRatio / MemoryPaused / MemoryGCPauses
//   - WatchEventsTotal / WatchErrors
//   - StoreQueryTotal / StoreQueryDuration
//
// # Usage
//
// Metrics are exposed by the internal/server router at /metrics when
// METRICS_ENABLED is true. Call InitializeMetrics once at startup so that
// labelled series exist before their first observation.
package metrics
