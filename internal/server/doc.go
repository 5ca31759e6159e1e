// Package server exposes the operational endpoints of a long-running
// bananalab process (watch mode, or batch with METRICS_ENABLED):
//
//   - /metrics: Prometheus exposition
//   - /healthz: JSON status with cache and memory state
//   - /livez: liveness check
//   - /version: build information
//
// Requests are logged one line each through the logging package.
package server
