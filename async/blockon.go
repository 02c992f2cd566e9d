package async

import "github.com/viant/kom/status"

// BlockOn drives future to completion on the calling goroutine, parking
// between wakes. It must only be used at the passive level: when exec runs at
// the dispatch level the call is rejected with the retry code instead of
// silently blocking.
func BlockOn[T any](exec Executor, future Future[T]) (T, status.Status) {
	var zero T
	if exec != nil && exec.Level() == LevelDispatch {
		return zero, status.Retry
	}

	wakeCh := make(chan struct{}, 1)
	ctx := &Context{
		waker: NewWaker(func() {
			select {
			case wakeCh <- struct{}{}:
			default:
			}
		}),
		level: LevelPassive,
	}
	for {
		value, st, done := future.Poll(ctx)
		if done {
			return value, st
		}
		<-wakeCh
	}
}
