// Package parallel splits independent loop iterations across goroutines.
//
// Layers use it to fan out per-output-unit and per-channel work. Callers
// must partition their writes so no two iterations touch the same element.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum iterations per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16,
	}
}

// Sequential returns a Config that always runs inline.
func Sequential() Config {
	return Config{}
}

// For runs f over [0, n) split into contiguous [lo, hi) ranges.
//
// Falls back to a single inline call when parallelism is disabled or n is
// below MinChunkSize. For returns after every range has completed.
func For(n int, cfg Config, f func(lo, hi int)) {
	if n <= 0 {
		return
	}
	workers := cfg.NumWorkers
	if !cfg.Enabled || workers < 2 || n < 2*max(cfg.MinChunkSize, 1) {
		f(0, n)
		return
	}

	chunk := max((n+workers-1)/workers, cfg.MinChunkSize, 1)

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			f(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// Each runs f(i) for every i in [0, n) using For's partitioning.
func Each(n int, cfg Config, f func(i int)) {
	For(n, cfg, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f(i)
		}
	})
}
