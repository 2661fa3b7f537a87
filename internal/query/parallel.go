package query

import (
	"runtime"
	"sync"

	"github.com/inodb/vibe-guidescan/internal/guide"
)

// WorkItem holds a fetched candidate ready for processing.
type WorkItem struct {
	Seq       int
	Candidate *guide.Candidate
}

// WorkResult holds the processed form of a single candidate.
type WorkResult struct {
	Seq    int
	Result *Result
	Err    error
}

// parallelProcess runs process over work items using a pool of workers.
// Results are sent in arrival order; use OrderedCollect for fetch order.
// If workers is 0, runtime.NumCPU() is used.
func parallelProcess(items <-chan WorkItem, workers int, process func(*guide.Candidate) (*Result, error)) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				res, err := process(item.Candidate)
				results <- WorkResult{Seq: item.Seq, Result: res, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
