package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Asset metrics
var (
	AssetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bananalab_asset_loads_total",
			Help: "Total number of asset load attempts",
		},
		[]string{"source", "status"}, // source: http, data, blob, file; status: success, error, timeout
	)

	AssetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bananalab_asset_load_duration_seconds",
			Help:    "Asset fetch and decode duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3},
		},
		[]string{"source"},
	)

	AssetCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bananalab_asset_cache_hits_total",
			Help: "Total number of asset cache hits",
		},
	)

	AssetCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bananalab_asset_cache_misses_total",
			Help: "Total number of asset cache misses",
		},
	)

	AssetCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bananalab_asset_cache_entries",
			Help: "Number of decoded assets held by the cache",
		},
	)

	AssetCacheHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bananalab_asset_cache_held_entries",
			Help: "Evicted assets kept alive because an in-flight generation pins them",
		},
	)

	AssetCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bananalab_asset_cache_evictions_total",
			Help: "Total number of assets evicted from the cache",
		},
	)

	AssetPreloadInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bananalab_asset_preload_in_flight",
			Help: "Number of asset decodes currently in flight",
		},
	)

	AssetPreloadBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bananalab_asset_preload_batches_total",
			Help: "Total number of preload batches executed",
		},
	)
)

// Filter metrics
var (
	FilterApplicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bananalab_filter_applications_total",
			Help: "Total number of filter pipeline runs",
		},
		[]string{"strategy", "status"},
	)

	FilterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bananalab_filter_duration_seconds",
			Help:    "Filter pipeline duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
		[]string{"strategy"},
	)

	FilterFastAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bananalab_filter_fast_available",
			Help: "Whether the composed filter chain passed its capability check (1 = yes)",
		},
	)
)

// Render metrics
var (
	PageRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bananalab_page_render_duration_seconds",
			Help:    "Page compositing duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ElementsRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bananalab_elements_rendered_total",
			Help: "Total number of page elements rendered",
		},
		[]string{"type", "status"}, // status: success, skipped, error
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bananalab_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"status"}, // success, cached, placeholder, error
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bananalab_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds by phase",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"phase"}, // assets, render, encode
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bananalab_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bananalab_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bananalab_thumbnail_cache_count",
			Help: "Number of thumbnails in the cache",
		},
	)

	ThumbnailCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bananalab_thumbnail_cache_size_bytes",
			Help: "Total encoded size of cached thumbnails in bytes",
		},
	)

	ThumbnailBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bananalab_thumbnail_batch_duration_seconds",
			Help:    "Duration of batch thumbnail generation in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ThumbnailBatchPages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bananalab_thumbnail_batch_pages",
			Help:    "Number of pages per batch request",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)
)

// Blob metrics
var (
	BlobHandlesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bananalab_blob_handles_active",
			Help: "Number of blob handles issued and not yet revoked",
		},
	)

	BlobHandlesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bananalab_blob_handles_issued_total",
			Help: "Total number of blob handles issued",
		},
	)

	BlobHandlesRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bananalab_blob_handles_revoked_total",
			Help: "Total number of blob handles revoked",
		},
	)

	BlobBytesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bananalab_blob_bytes_active",
			Help: "Decoded bytes held behind active blob handles",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bananalab_memory_usage_ratio",
			Help: "Current memory usage as a ratio of the configured limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bananalab_memory_paused",
			Help: "Whether batch generation is paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bananalab_memory_gc_pauses_total",
			Help: "Total number of times generation was paused for GC",
		},
	)
)

// Watch metrics
var (
	WatchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bananalab_watch_events_total",
			Help: "Total number of page file events handled in watch mode",
		},
		[]string{"op"},
	)

	WatchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bananalab_watch_errors_total",
			Help: "Total number of watcher errors",
		},
	)
)

// Filesystem metrics
var (
	FileRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bananalab_file_retries_total",
			Help: "Filesystem operations that needed NFS stale handle retries",
		},
		[]string{"operation", "result"}, // result: success, failure
	)

	FileStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bananalab_file_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation"},
	)
)

// Store metrics
var (
	StoreQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bananalab_store_queries_total",
			Help: "Total number of thumbnail store queries",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bananalab_store_query_duration_seconds",
			Help:    "Thumbnail store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// App info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bananalab_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
