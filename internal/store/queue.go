package store

import "sync/atomic"

// Queue serializes snapshot deliveries for one subscription. Pushes never
// block the publisher: when the consumer lags, intermediate snapshots are
// coalesced (each delivery is the full contents, so only the latest one
// matters). Stop is synchronous from the caller's view: once it returns, the
// callback will not be entered again.
type Queue[T any] struct {
	ch      chan T
	quit    chan struct{}
	stopped atomic.Bool
}

func NewQueue[T any](fn func(T)) *Queue[T] {
	q := &Queue[T]{
		ch:   make(chan T, 16),
		quit: make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-q.quit:
				return
			case v := <-q.ch:
				if q.stopped.Load() {
					return
				}
				fn(v)
			}
		}
	}()
	return q
}

// Push enqueues a delivery, dropping the oldest pending one when full.
func (q *Queue[T]) Push(v T) {
	if q.stopped.Load() {
		return
	}
	for {
		select {
		case q.ch <- v:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// Stop discards any pending deliveries and prevents future ones.
func (q *Queue[T]) Stop() {
	if q.stopped.CompareAndSwap(false, true) {
		close(q.quit)
	}
}
