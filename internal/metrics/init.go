package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	sources := []string{"http", "data", "blob", "file"}
	for _, src := range sources {
		for _, status := range []string{"success", "error", "timeout"} {
			AssetLoadsTotal.WithLabelValues(src, status)
		}
		AssetLoadDuration.WithLabelValues(src)
	}

	for _, strategy := range []string{"fast", "pixel", "none"} {
		FilterApplicationsTotal.WithLabelValues(strategy, "success")
		FilterApplicationsTotal.WithLabelValues(strategy, "error")
		FilterDuration.WithLabelValues(strategy)
	}

	for _, t := range []string{"image", "text"} {
		for _, status := range []string{"success", "skipped", "error"} {
			ElementsRenderedTotal.WithLabelValues(t, status)
		}
	}

	for _, status := range []string{"success", "cached", "placeholder", "error"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}
	for _, phase := range []string{"assets", "render", "encode"} {
		ThumbnailGenerationDuration.WithLabelValues(phase)
	}

	for _, op := range []string{"create", "write", "remove", "rename"} {
		WatchEventsTotal.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "open", "read"} {
		FileRetriesTotal.WithLabelValues(op, "success")
		FileRetriesTotal.WithLabelValues(op, "failure")
		FileStaleErrors.WithLabelValues(op)
	}

	for _, op := range []string{"initialize_schema", "save_thumbnails", "get_thumbnail", "count"} {
		StoreQueryTotal.WithLabelValues(op, "success")
		StoreQueryTotal.WithLabelValues(op, "error")
		StoreQueryDuration.WithLabelValues(op)
	}
}
