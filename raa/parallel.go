package raa

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// shardedFor runs fn(i) for i in [0, n). Below ParallelThreshold it runs
// sequentially to avoid scheduling overhead (spec §5); above it, it splits
// the range into per-CPU shards and runs them concurrently with errgroup,
// which is safe here because every caller of shardedFor is associative
// group/field addition or a pure permutation lookup (spec §4.3
// "Parallelism rule").
func shardedFor(n int, fn func(i int)) {
	if n < ParallelThreshold {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		start := start
		end := start + chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
