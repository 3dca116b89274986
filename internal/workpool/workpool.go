// Package workpool runs indexed jobs on a fixed number of goroutines.
package workpool

import (
	"context"
	"runtime"
	"sync"
)

// Run calls fn(i) for every i in [0, n) using the given number of workers.
// workers <= 0 uses runtime.NumCPU(). Jobs not yet started when ctx is
// cancelled are skipped and ctx.Err() is returned.
func Run(ctx context.Context, n, workers int, fn func(i int)) error {
	if n <= 0 {
		return ctx.Err()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

	var err error
send:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break send
		case jobs <- i:
		}
	}
	close(jobs)

	wg.Wait()
	return err
}

// RunErr is Run for jobs that can fail. The first error stops jobs that have
// not started yet and is returned once the running ones finish.
func RunErr(ctx context.Context, n, workers int, fn func(i int) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	err := Run(ctx, n, workers, func(i int) {
		if ctx.Err() != nil {
			return
		}
		if err := fn(i); err != nil {
			once.Do(func() {
				firstErr = err
				cancel()
			})
		}
	})
	if firstErr != nil {
		return firstErr
	}
	return err
}
