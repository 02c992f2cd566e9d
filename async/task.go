package async

import (
	"sync/atomic"
	"unsafe"

	"github.com/viant/kom/object"
	"github.com/viant/kom/status"
	"github.com/viant/kom/tracing"
)

// Executor accepts ready tasks for execution.
type Executor interface {
	// Enqueue appends the task at the run-queue tail.
	Enqueue(task *Task)
	// Level reports the execution level enqueued tasks run at.
	Level() Level
}

// SlotAssigner is implemented by executors that track outstanding
// cancellation requests per logical CPU.
type SlotAssigner interface {
	AssignSlot() (slot int, table *CancelTable)
}

// Task is the control block of one spawned computation. It replaces recursive
// resumption with an iterative drive loop bounded by a poll budget, so a
// chain of synchronous self-wakes grows neither the call stack nor the
// run-queue occupancy.
type Task struct {
	state atomic.Uint32

	id      string
	slot    int
	budget  uint32
	exec    Executor
	cancel  *CancelHandle
	tracker *Tracker
	phase   Phase

	// poll advances the computation; on the final step it has already stored
	// the typed result into the operation record.
	poll func(ctx *Context) (status.Status, bool)
	// cleanup, when set, is the cooperative cancellation path; it reports
	// completion the same way poll does.
	cleanup func(ctx *Context) bool
	// finish publishes the terminal state into the operation record.
	finish func(final State, st status.Status)
	// op holds the in-flight self-reference on the operation object.
	op unsafe.Pointer
}

// ID returns the task identifier.
func (t *Task) ID() string {
	return t.id
}

// Slot returns the logical-CPU slot the task was assigned at spawn. Executors
// without per-CPU queues ignore it.
func (t *Task) Slot() int {
	return t.slot
}

// State returns the task's lifecycle state.
func (t *Task) State() State {
	return State(t.state.Load() & stateMask)
}

// wake implements the wake contract: set the Queued flag and enqueue only on
// its 0->1 transition, so one pending wake never occupies two queue entries.
// When a drive loop is mid-step the flag alone suffices; the loop observes it
// before giving up the task.
func (t *Task) wake() {
	prev := t.state.Or(flagQueued)
	if prev&flagQueued != 0 {
		tracing.IncWakeCoalesced()
		return
	}
	if State(prev&stateMask) != StateStarted {
		return
	}
	tracing.IncWakeEnqueued()
	if prev&flagPolling != 0 {
		return
	}
	t.exec.Enqueue(t)
}

// trySetPolling claims the task for one drive-loop invocation, consuming the
// Queued flag that scheduled it. It fails when another invocation already
// owns the task or the task is terminal.
func (t *Task) trySetPolling() bool {
	for {
		current := t.state.Load()
		if State(current&stateMask) != StateStarted {
			return false
		}
		if current&flagPolling != 0 {
			return false
		}
		next := (current | flagPolling) &^ flagQueued
		if t.state.CompareAndSwap(current, next) {
			return true
		}
	}
}

// Invoke is the run-queue entry point: claim the task and drive it.
func (t *Task) Invoke() {
	if !t.trySetPolling() {
		return
	}
	t.drive()
}

// drive advances the computation until it suspends on a genuine external
// wait, completes, or exhausts the poll budget of this invocation.
func (t *Task) drive() {
	remaining := t.budget
	ctx := &Context{
		waker:  &Waker{wake: t.wake},
		level:  t.exec.Level(),
		cancel: t.cancel,
	}
	for {
		if t.phase == PhaseMain && t.cancel != nil && t.cancel.TakeRequest() {
			if t.cleanup == nil {
				t.complete(StateCanceled, status.Cancelled)
				return
			}
			t.phase = PhaseCleanup
		}
		ctx.phase = t.phase

		tracing.IncPollTotal()
		var done bool
		var st status.Status
		if t.phase == PhaseCleanup {
			done = t.cleanup(ctx)
			st = status.Cancelled
		} else {
			st, done = t.poll(ctx)
		}
		if done {
			tracing.IncPollReady()
			switch {
			case t.phase == PhaseCleanup:
				t.complete(StateCanceled, status.Cancelled)
			case st.IsError():
				t.complete(StateError, st)
			default:
				t.complete(StateCompleted, st)
			}
			return
		}
		tracing.IncPollPending()

		if !t.finishPending(&remaining) {
			return
		}
	}
}

// finishPending resolves a suspended step. It returns true when the loop
// should take another step within this invocation. Three outcomes:
//   - no wake fired during the step: a genuine external wait; clear Polling
//     and stop, the eventual wake re-enters Invoke.
//   - woken and budget remains: consume one budget unit and the Queued flag,
//     continue iterating.
//   - woken and budget exhausted: leave Queued set, clear Polling, re-enqueue
//     at the queue tail so everything else sharing the queue runs first.
//
// A wake landing between the flag check and the CompareAndSwap fails the
// swap and is re-examined, so no wakeup is ever lost.
func (t *Task) finishPending(remaining *uint32) bool {
	for {
		current := t.state.Load()
		if current&flagQueued == 0 {
			if t.state.CompareAndSwap(current, current&^flagPolling) {
				return false
			}
			continue
		}
		if *remaining > 1 {
			if t.state.CompareAndSwap(current, current&^flagQueued) {
				*remaining--
				return true
			}
			continue
		}
		if t.state.CompareAndSwap(current, current&^flagPolling) {
			t.exec.Enqueue(t)
			return false
		}
	}
}

// complete publishes the terminal state, notifies the tracker and drops the
// in-flight self-reference. Runs exactly once, on whichever context drove the
// final step.
func (t *Task) complete(final State, st status.Status) {
	for {
		current := t.state.Load()
		next := (current &^ (flagPolling | flagQueued | stateMask)) | uint32(final)
		if t.state.CompareAndSwap(current, next) {
			break
		}
	}
	if t.finish != nil {
		t.finish(final, st)
	}
	switch final {
	case StateCompleted:
		tracing.IncCompleted()
	case StateCanceled:
		tracing.IncCanceled()
	case StateError:
		tracing.IncErrored()
	}
	if t.cancel != nil {
		t.cancel.detach()
	}
	if t.tracker != nil {
		t.tracker.done(t)
	}
	if t.op != nil {
		op := t.op
		t.op = nil
		object.Release(op)
	}
}
