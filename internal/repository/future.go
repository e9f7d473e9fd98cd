package repository

import (
	"context"
	"sync"
)

// Future is the deferred result of one request. It completes exactly once,
// either with the response or with an error such as ErrConnectionLost.
type Future[T any] struct {
	id   int64
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

func newFuture[T any](id int64) *Future[T] {
	return &Future[T]{id: id, done: make(chan struct{})}
}

func (f *Future[T]) ID() int64 {
	return f.id
}

func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx is done. An expired ctx does
// not cancel the request; the response is still consumed when it arrives.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) complete(val T, err error) bool {
	completed := false
	f.once.Do(func() {
		f.val = val
		f.err = err
		completed = true
		close(f.done)
	})
	return completed
}
