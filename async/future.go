package async

import "github.com/viant/kom/status"

// Future is one suspended computation, advanced one step at a time. Poll runs
// in the executor's context: at the dispatch level it must not block or touch
// anything non-resident.
type Future[T any] interface {
	// Poll advances the computation one step. done=false means the step
	// suspended; the computation must already have arranged for
	// ctx.Waker().Wake() to fire when it can make progress again.
	Poll(ctx *Context) (value T, st status.Status, done bool)
}

// FutureFunc adapts a plain function to Future.
type FutureFunc[T any] func(ctx *Context) (T, status.Status, bool)

// Poll implements Future.
func (f FutureFunc[T]) Poll(ctx *Context) (T, status.Status, bool) {
	return f(ctx)
}

// Ready returns a future that completes on its first poll.
func Ready[T any](value T, st status.Status) Future[T] {
	return FutureFunc[T](func(*Context) (T, status.Status, bool) {
		return value, st, true
	})
}

type guardedFuture[T any] struct {
	main    Future[T]
	cleanup func(ctx *Context) bool
}

// Poll implements Future.
func (g *guardedFuture[T]) Poll(ctx *Context) (T, status.Status, bool) {
	return g.main.Poll(ctx)
}

// TryFinally pairs main with a cleanup phase. When Spawn receives the pair
// and a cancellation request is taken mid-flight, the drive loop switches to
// polling cleanup until it reports done, then finishes Canceled. Equivalent
// to spawning main with WithCleanup.
func TryFinally[T any](main Future[T], cleanup func(ctx *Context) bool) Future[T] {
	return &guardedFuture[T]{main: main, cleanup: cleanup}
}
