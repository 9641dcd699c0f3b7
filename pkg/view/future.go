package view

import "context"

// Future is the pending result of a blocking call started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on its own goroutine. fn must not touch engine state; apply
// the result on the goroutine that owns the engine instead.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Result blocks until the call finishes.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// Await is Result bounded by ctx.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
