package async

import (
	"sync/atomic"

	"go.uber.org/zap"
)

const (
	cancelIdle uint32 = iota
	cancelRequested
	cancelTaken
)

// CancelHandle carries the cooperative cancellation flag of one computation.
// Cancellation is advisory: the computation observes it only at its own
// suspension points, never preemptively.
type CancelHandle struct {
	state atomic.Uint32
	table *CancelTable
	slot  int
}

// NewCancelHandle creates a handle with no per-CPU tracking.
func NewCancelHandle() *CancelHandle {
	return &CancelHandle{slot: -1}
}

func newTrackedCancelHandle(table *CancelTable, slot int) *CancelHandle {
	handle := &CancelHandle{table: table, slot: slot}
	if table != nil && !table.register(slot) {
		// Out-of-range slot disables tracking for this handle only.
		handle.table = nil
		handle.slot = -1
	}
	return handle
}

// Cancel requests cancellation. It returns true for the call that set the
// flag; later calls are no-ops.
func (h *CancelHandle) Cancel() bool {
	if h == nil {
		return false
	}
	if !h.state.CompareAndSwap(cancelIdle, cancelRequested) {
		return false
	}
	if h.table != nil {
		h.table.noteRequested(h.slot)
	}
	return true
}

// Requested reports whether cancellation has been requested, without
// consuming the request.
func (h *CancelHandle) Requested() bool {
	return h != nil && h.state.Load() != cancelIdle
}

// TakeRequest consumes a pending request. For one Cancel it returns true
// exactly once across any number of competing observers.
func (h *CancelHandle) TakeRequest() bool {
	if h == nil {
		return false
	}
	if !h.state.CompareAndSwap(cancelRequested, cancelTaken) {
		return false
	}
	if h.table != nil {
		h.table.noteTaken(h.slot)
	}
	return true
}

// detach removes the handle from per-CPU tracking once its computation is
// terminal. A still-pending request is counted as taken so the slot's
// outstanding count returns to zero.
func (h *CancelHandle) detach() {
	if h == nil || h.table == nil {
		return
	}
	if h.state.CompareAndSwap(cancelRequested, cancelTaken) {
		h.table.noteTaken(h.slot)
	}
	h.table.unregister(h.slot)
	h.table = nil
}

type cancelSlot struct {
	registered atomic.Int32
	pending    atomic.Int32
}

// CancelTable tracks, per logical CPU, how many computations are registered
// and how many of them have an unconsumed cancellation request. It is owned
// by the executor's lifecycle and mutated only via atomics, never locks: the
// dispatch level must not block.
type CancelTable struct {
	slots  []cancelSlot
	logger *zap.Logger
}

// NewCancelTable creates a table with one slot per logical CPU. A nil logger
// disables logging.
func NewCancelTable(cpus int, logger *zap.Logger) *CancelTable {
	if cpus < 1 {
		cpus = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CancelTable{slots: make([]cancelSlot, cpus), logger: logger}
}

// Len returns the slot count.
func (t *CancelTable) Len() int {
	return len(t.slots)
}

// Registered returns how many computations slot currently tracks.
func (t *CancelTable) Registered(slot int) int {
	if !t.inRange(slot) {
		return 0
	}
	return int(t.slots[slot].registered.Load())
}

// Pending returns how many tracked computations on slot have an unconsumed
// cancellation request.
func (t *CancelTable) Pending(slot int) int {
	if !t.inRange(slot) {
		return 0
	}
	return int(t.slots[slot].pending.Load())
}

func (t *CancelTable) inRange(slot int) bool {
	return slot >= 0 && slot < len(t.slots)
}

// register claims a slot entry. An out-of-range index disables tracking for
// that computation rather than failing its spawn.
func (t *CancelTable) register(slot int) bool {
	if !t.inRange(slot) {
		t.logger.Warn("cancellation slot out of range, tracking disabled",
			zap.Int("slot", slot), zap.Int("slots", len(t.slots)))
		return false
	}
	t.slots[slot].registered.Add(1)
	return true
}

func (t *CancelTable) unregister(slot int) {
	if t.inRange(slot) {
		t.slots[slot].registered.Add(-1)
	}
}

func (t *CancelTable) noteRequested(slot int) {
	if t.inRange(slot) {
		t.slots[slot].pending.Add(1)
	}
}

func (t *CancelTable) noteTaken(slot int) {
	if t.inRange(slot) {
		t.slots[slot].pending.Add(-1)
	}
}
