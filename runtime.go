package kom

import (
	"context"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/viant/kom/async"
	"github.com/viant/kom/async/workitem"
	"github.com/viant/kom/object"
	"github.com/viant/kom/status"
)

// Runtime drives the service lifecycle: it starts the two executors and, at
// shutdown, runs the unload barrier before tearing anything down so no
// suspended computation outlives memory it might reference.
type Runtime struct {
	service *Service
	started atomic.Bool
	stopped atomic.Bool
}

// Start launches both executors.
func (r *Runtime) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("runtime already started")
	}
	if err := r.service.dispatch.Start(ctx); err != nil {
		return err
	}
	return r.service.workItem.Start(ctx)
}

// Shutdown cancels every tracked computation, drains the tracker, stops the
// executors and releases the slab bins. Computations parked on external
// waits must be woken by their owners before Shutdown, or the drain runs
// into ctx's deadline.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if !r.stopped.CompareAndSwap(false, true) {
		return nil
	}
	r.service.tracker.CancelAll()
	if err := r.service.tracker.Drain(ctx); err != nil {
		return err
	}
	if err := r.service.workItem.Shutdown(ctx); err != nil {
		return err
	}
	if err := r.service.dispatch.Shutdown(ctx); err != nil {
		return err
	}
	if r.service.slab != nil {
		r.service.slab.Close()
	}
	return nil
}

// NewObject constructs an object from the runtime's allocator with the
// configured hardening mode. Further options may override both.
func NewObject[T any](r *Runtime, payload T, options ...object.Option) (unsafe.Pointer, status.Status) {
	defaults := []object.Option{
		object.WithAllocator(r.service.allocator),
		object.WithHardening(r.service.config.Hardening),
	}
	return object.New(payload, append(defaults, options...)...)
}

// SpawnDispatch spawns future on the elevated-priority executor, registered
// with the runtime's tracker and budget profile.
func SpawnDispatch[T any](r *Runtime, future async.Future[T], options ...async.SpawnOption) (async.Operation[T], *async.CancelHandle) {
	return async.Spawn(r.service.dispatch, future, r.spawnOptions(options)...)
}

// SpawnWorkItem spawns future on the normal-priority executor, registered
// with the runtime's tracker and budget profile. A caller at the dispatch
// level receives the retry code and an Error-state operation.
func SpawnWorkItem[T any](r *Runtime, future async.Future[T], options ...async.SpawnOption) (async.Operation[T], *async.CancelHandle, status.Status) {
	return workitem.Submit(r.service.workItem, future, r.spawnOptions(options)...)
}

func (r *Runtime) spawnOptions(options []async.SpawnOption) []async.SpawnOption {
	defaults := []async.SpawnOption{
		async.WithBudgets(r.service.budgets),
		async.WithAllocator(r.service.allocator),
		async.WithTracker(r.service.tracker),
	}
	return append(defaults, options...)
}
