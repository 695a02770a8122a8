// Package parallel provides the goroutine fan-out used to run MCMC
// chains concurrently and to split large generated-quantities loops
// across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items across the available CPU cores and executes
// fn in parallel for each range (start, end). Used for loops over draws
// or observations where every item is independent.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Number of items per worker (ceiling division).
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}

		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold parallelizes only when items exceeds the
// threshold; below it the loop runs sequentially, avoiding goroutine
// overhead for small workloads.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}

	Parallelize(items, fn)
}

// ForEach runs fn(i) for each i in [0, items) on its own goroutine and
// waits for all of them. Chains are launched through this: each chain is
// one self-contained unit of work with no shared mutable state, so one
// goroutine per chain is the natural mapping.
func ForEach(items int, fn func(i int)) {
	if items == 0 {
		return
	}

	var wg sync.WaitGroup
	wg.Add(items)
	for i := 0; i < items; i++ {
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}
