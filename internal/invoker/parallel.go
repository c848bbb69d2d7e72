package invoker

import "sync"

type orderedResult[R any] struct {
	Value R
	Err   error
	// Skipped marks items whose worker never ran because an earlier item
	// had already failed.
	Skipped bool
}

// runOrdered runs fn over items with bounded concurrency, returning results
// in input order. The first failure stops dispatch: items whose worker has
// not yet claimed a pool slot are skipped, while already-running workers
// drain to completion before runOrdered returns, so no in-flight work
// survives the call.
func runOrdered[T any, R any](items []T, concurrency int, fn func(T) (R, error)) []orderedResult[R] {
	if len(items) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	sem := make(chan struct{}, concurrency)
	abort := make(chan struct{})
	var once sync.Once
	results := make([]orderedResult[R], len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			select {
			case <-abort:
				results[i].Skipped = true
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()
			// A freed slot and a failure can land together; re-check so
			// no new work starts after the first error.
			select {
			case <-abort:
				results[i].Skipped = true
				return
			default:
			}
			v, err := fn(item)
			results[i] = orderedResult[R]{Value: v, Err: err}
			if err != nil {
				once.Do(func() { close(abort) })
			}
		}(i, item)
	}
	wg.Wait()
	return results
}
