package flow

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// workItem pairs an input item with its position in arrival order, used
// by the reassembly stage when ConcurrencyPolicy.PreserveOrder is set.
type workItem[I any] struct {
	seq  uint64
	item I
}

type workResult[O any] struct {
	seq uint64
	out O
	err error
	ok  bool // false when the item was dropped rather than produced
}

// runWorkerPool drains in, fans each item out to up to
// policy.MaxDegreeOfParallelism concurrent invocations of process, and
// delivers every successful result to emit. It returns the first
// processing error encountered, after every in-flight worker has
// returned (spec.md §4.5, §4.6).
//
// process already has retry and per-item timeout applied by the caller;
// runWorkerPool itself is only concerned with fan-out, optional
// reordering, and first-error propagation.
func runWorkerPool[I, O any](ctx context.Context, policy ConcurrencyPolicy, in <-chan Envelope[I], emit func(O) bool, process func(ctx context.Context, item I) (O, error, bool)) error {
	degree := policy.MaxDegreeOfParallelism
	if degree < 1 {
		degree = 1
	}

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	grp, gctx := errgroup.WithContext(cctx)
	sem := semaphore.NewWeighted(int64(degree))

	work := make(chan workItem[I])
	results := make(chan workResult[O])

	// Distributor: assigns arrival sequence numbers and fans items out
	// to the worker semaphore.
	grp.Go(func() error {
		defer close(work)
		var seq uint64
		for {
			select {
			case env, ok := <-in:
				if !ok {
					return nil
				}
				if env.End {
					return env.Err
				}
				select {
				case work <- workItem[I]{seq: seq, item: env.Item}:
					seq++
				case <-gctx.Done():
					return gctx.Err()
				}
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	var workersWG sync.WaitGroup
	grp.Go(func() error {
		for wi := range work {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			workersWG.Add(1)
			go func(wi workItem[I]) {
				defer sem.Release(1)
				defer workersWG.Done()
				out, err, ok := process(gctx, wi.item)
				select {
				case results <- workResult[O]{seq: wi.seq, out: out, err: err, ok: ok}:
				case <-gctx.Done():
				}
			}(wi)
		}
		workersWG.Wait()
		return nil
	})

	go func() {
		grp.Wait()
		close(results)
	}()

	if policy.PreserveOrder {
		return reassembleInOrder(results, emit, cancel)
	}
	return drainUnordered(results, emit, cancel)
}

// drainUnordered and reassembleInOrder both call stop as soon as the
// first process() error is seen, so the distributor and worker spawner
// above (both select on gctx.Done()) stop pulling further items from an
// unbounded upstream instead of draining it to completion before the
// error is reported.
func drainUnordered[O any](results <-chan workResult[O], emit func(O) bool, stop func()) error {
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
				stop()
			}
			continue
		}
		if r.ok {
			emit(r.out)
		}
	}
	return firstErr
}

// reassembleInOrder buffers out-of-order worker results until the next
// expected sequence number is available, then emits in input order
// (spec.md §4.5, "optional ordering window"). Unbounded in the number of
// items it may hold back; a worker pool with PreserveOrder set should be
// paired with a bounded MaxDegreeOfParallelism to keep this window
// small in practice.
func reassembleInOrder[O any](results <-chan workResult[O], emit func(O) bool, stop func()) error {
	pending := make(map[uint64]workResult[O])
	var next uint64
	var firstErr error

	for r := range results {
		pending[r.seq] = r
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if r.err != nil {
				if firstErr == nil {
					firstErr = r.err
					stop()
				}
				continue
			}
			if r.ok {
				emit(r.out)
			}
		}
	}
	return firstErr
}
