package async

import (
	"context"
	"unsafe"

	"github.com/viant/kom/internal/idgen"
	"github.com/viant/kom/memory"
	"github.com/viant/kom/object"
	"github.com/viant/kom/status"
	"github.com/viant/kom/tracing"
)

type spawnConfig struct {
	budget  uint32
	class   Class
	budgets Budgets
	alloc   memory.Allocator
	tracker *Tracker
	cleanup func(ctx *Context) bool
	id      string
}

// SpawnOption customises one spawn.
type SpawnOption func(*spawnConfig)

// WithBudget sets an explicit poll budget, overriding the class profile.
func WithBudget(budget uint32) SpawnOption {
	return func(c *spawnConfig) {
		c.budget = budget
	}
}

// WithClass selects the poll-budget class.
func WithClass(class Class) SpawnOption {
	return func(c *spawnConfig) {
		c.class = class
	}
}

// WithBudgets overrides the budget profile the class is resolved against.
func WithBudgets(budgets Budgets) SpawnOption {
	return func(c *spawnConfig) {
		c.budgets = budgets
	}
}

// WithAllocator sets the allocator the operation record is created from.
func WithAllocator(alloc memory.Allocator) SpawnOption {
	return func(c *spawnConfig) {
		if alloc != nil {
			c.alloc = alloc
		}
	}
}

// WithTracker registers the spawn with an unload-barrier tracker.
func WithTracker(tracker *Tracker) SpawnOption {
	return func(c *spawnConfig) {
		c.tracker = tracker
	}
}

// WithCleanup sets the cooperative cancellation path. After a cancellation
// request is taken, the drive loop runs cleanup instead of the main
// computation until it reports done, then finishes Canceled.
func WithCleanup(cleanup func(ctx *Context) bool) SpawnOption {
	return func(c *spawnConfig) {
		c.cleanup = cleanup
	}
}

// WithID sets the task identifier; defaults to a generated one.
func WithID(id string) SpawnOption {
	return func(c *spawnConfig) {
		c.id = id
	}
}

// Spawn builds an asynchronous operation around future and hands it to exec.
// The operation record is created from the configured allocator with one
// client reference, plus a self-reference held for the duration of the
// in-flight computation so client releases cannot free it mid-flight. The
// first drive happens inline: a computation that completes without
// suspending never touches the executor queue.
//
// If the operation record itself cannot be allocated, the returned operation
// is already in the Error terminal state and the cancel handle is nil;
// callers always receive an object.
func Spawn[T any](exec Executor, future Future[T], options ...SpawnOption) (Operation[T], *CancelHandle) {
	config := &spawnConfig{
		class:   ClassDefault,
		budgets: DefaultBudgets(),
		alloc:   memory.Default(),
	}
	for _, option := range options {
		option(config)
	}
	if guarded, ok := future.(*guardedFuture[T]); ok {
		if config.cleanup == nil {
			config.cleanup = guarded.cleanup
		}
		future = guarded.main
	}
	budget := config.budget
	if budget == 0 {
		budget = config.budgets.For(config.class)
	}
	if config.id == "" {
		config.id = idgen.New()
	}
	_, span := tracing.StartSpan(context.Background(), "async.spawn "+config.id, "PRODUCER")
	defer tracing.EndSpan(span, nil)

	op, st := object.New(opPayload[T]{shared: opShared{state: uint32(StateStarted), code: int32(status.Pending)}},
		object.WithIID(IIDOperation),
		object.WithVtbl(unsafe.Pointer(operationVtbl[T]())),
		object.WithAllocator(config.alloc),
	)
	if st.IsError() {
		return SpawnError[T](st), nil
	}
	payload := object.Payload[opPayload[T]](op)

	var handle *CancelHandle
	slot := 0
	if assigner, ok := exec.(SlotAssigner); ok {
		var table *CancelTable
		slot, table = assigner.AssignSlot()
		handle = newTrackedCancelHandle(table, slot)
	} else {
		handle = NewCancelHandle()
	}

	task := &Task{
		id:      config.id,
		slot:    slot,
		budget:  budget,
		exec:    exec,
		cancel:  handle,
		tracker: config.tracker,
		cleanup: config.cleanup,
	}
	task.poll = func(ctx *Context) (status.Status, bool) {
		value, st, done := future.Poll(ctx)
		if done && !st.IsError() {
			payload.value = value
			// The record is not scanned by the collector; keep the result's
			// referents alive until the record is torn down.
			object.Pin(op, value)
		}
		return st, done
	}
	task.finish = func(final State, st status.Status) {
		payload.shared.publish(final, st)
	}

	object.AddRef(op)
	task.op = op
	task.state.Store(uint32(StateStarted) | flagQueued)
	if config.tracker != nil {
		config.tracker.track(task, handle)
	}
	tracing.IncSpawned()

	task.Invoke()

	return Operation[T]{ref: object.Adopt(op)}, handle
}

// SpawnError returns an operation already in the Error terminal state. Used
// when building the computation fails before it can be handed to an
// executor. The record comes from the default heap, which cannot be
// exhausted, so the no-null-return guarantee holds even under allocator
// pressure.
func SpawnError[T any](st status.Status) Operation[T] {
	if !st.IsError() {
		st = status.Unsuccessful
	}
	op, _ := object.New(opPayload[T]{shared: opShared{state: uint32(StateError), code: int32(st)}},
		object.WithIID(IIDOperation),
		object.WithVtbl(unsafe.Pointer(operationVtbl[T]())),
	)
	tracing.IncSpawned()
	tracing.IncErrored()
	return Operation[T]{ref: object.Adopt(op)}
}
