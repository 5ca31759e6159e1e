// Package memory keeps batch thumbnail generation inside a container's
// memory budget.
//
// Decoded assets and offscreen surfaces are large and short lived, so a
// batch over many pages can push the heap well past its steady state. The
// package does two things about that:
//
//   - [ConfigureFromEnv] sets GOMEMLIMIT from the container limit so the
//     collector works harder before the kernel steps in.
//   - [Monitor] samples heap usage and pauses batch generation between pages
//     while usage sits above the critical watermark.
//
// # Environment Variables
//
//   - GOMEMLIMIT: standard Go variable; takes precedence when set.
//   - MEMORY_LIMIT: container limit in bytes, or with a Ki/Mi/Gi (or K/M/G)
//     suffix, typically from the Kubernetes Downward API.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default
//     0.85). The remainder covers libvips and other cgo allocations.
//
// # Backpressure
//
// A Monitor satisfies the thumbnail generator's Pauser interface:
//
//	mon := memory.NewMonitor(memory.DefaultConfig())
//	mon.Start()
//	defer mon.Stop()
//	gen := thumbnail.NewGenerator(renderer, assets, cache, opts, mon)
//
// WaitIfPaused returns immediately while usage is below the critical mark.
// Once paused, it blocks until usage falls under the high watermark, or
// returns false after Stop.
package memory
