// Package opqueue serializes external filesystem side effects into a
// single-consumer FIFO. The executor always drains the queue before
// taking snapshots (Phase 0) so it never snapshots a stale page-cache
// view of a write that is still in flight.
package opqueue

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Op is a queued filesystem side effect. Run is invoked on the single
// consumer goroutine, so ops for different paths are still serialized
// relative to each other; callers that need true per-path concurrency
// should not route through the queue and should rely on lockmgr instead.
type Op struct {
	Run func(ctx context.Context) error
}

// Handle is returned to the submitter of an Op; Wait blocks until that
// specific op has run and returns its error.
type Handle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the op this handle refers to has completed.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Queue is a single-consumer FIFO of filesystem side effects.
type Queue struct {
	mu      sync.Mutex
	pending []queued
	signal  chan struct{}

	wg      sync.WaitGroup
	started bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

type queued struct {
	op     Op
	handle *Handle
}

// New creates a Queue and starts its consumer goroutine bound to ctx;
// cancelling ctx stops the consumer after any in-flight op finishes.
func New(ctx context.Context) *Queue {
	cctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(cctx)
	q := &Queue{
		signal: make(chan struct{}, 1),
		cancel: cancel,
		group:  g,
	}
	g.Go(func() error {
		q.consume(gctx)
		return nil
	})
	return q
}

// Submit enqueues op and returns a Handle the caller may Wait on.
func (q *Queue) Submit(op Op) *Handle {
	h := &Handle{done: make(chan struct{})}
	q.wg.Add(1)
	q.mu.Lock()
	q.pending = append(q.pending, queued{op: op, handle: h})
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return h
}

func (q *Queue) consume(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-q.signal:
				continue
			}
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		next.handle.err = next.op.Run(ctx)
		close(next.handle.done)
		q.wg.Done()

		if ctx.Err() != nil {
			return
		}
	}
}

// WaitUntilIdle blocks until no operations are queued or in flight. It is
// a happens-before barrier: every op submitted before this call returns
// has completed by the time it returns.
func (q *Queue) WaitUntilIdle() {
	q.wg.Wait()
}

// Close stops the consumer goroutine. Pending ops that have not yet run
// are abandoned; callers should WaitUntilIdle first if that matters.
func (q *Queue) Close() {
	q.cancel()
	_ = q.group.Wait()
}
