/*
Package workers sizes worker pools from GOMAXPROCS rather than
runtime.NumCPU, so a container with a 2-CPU limit on a 64-core node runs
two filter workers instead of sixty-four.

The renderer uses it to decide whether the composed filter chain may run
its stages in parallel:

	pipeline := filters.NewPipeline(workers.ForCPU(8))

FILTER_WORKERS overrides the computed count, still capped by the limit.
*/
package workers
