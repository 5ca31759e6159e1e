package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the variable that forces a worker count.
const EnvOverride = "FILTER_WORKERS"

// Count returns multiplier workers per available CPU, at least one and at
// most limit (0 for no cap). A positive FILTER_WORKERS value wins over the
// computed count.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			return capAt(n, limit)
		}
	}

	// GOMAXPROCS follows the container CPU limit
	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	return capAt(n, limit)
}

// ForCPU returns one worker per CPU for CPU-bound work such as filtering.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
