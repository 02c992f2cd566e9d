package async

import (
	"context"
	"sync"

	"github.com/viant/kom/tracing"
)

// Tracker collects the computations of one owning component so the component
// can cancel them as a batch and, before unloading, block until none of them
// can still touch memory it is about to release.
type Tracker struct {
	mu      sync.Mutex
	active  map[*Task]*CancelHandle
	emptyCh chan struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		active:  make(map[*Task]*CancelHandle),
		emptyCh: make(chan struct{}),
	}
}

func (tr *Tracker) track(task *Task, handle *CancelHandle) {
	tr.mu.Lock()
	tr.active[task] = handle
	tr.mu.Unlock()
}

func (tr *Tracker) done(task *Task) {
	tr.mu.Lock()
	delete(tr.active, task)
	if len(tr.active) == 0 {
		close(tr.emptyCh)
		tr.emptyCh = make(chan struct{})
	}
	tr.mu.Unlock()
}

// Active returns how many tracked computations are not yet terminal.
func (tr *Tracker) Active() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.active)
}

// CancelAll requests cancellation of every tracked computation.
func (tr *Tracker) CancelAll() {
	tr.mu.Lock()
	handles := make([]*CancelHandle, 0, len(tr.active))
	for _, handle := range tr.active {
		handles = append(handles, handle)
	}
	tr.mu.Unlock()
	for _, handle := range handles {
		handle.Cancel()
	}
}

// Drain blocks until every tracked computation reaches a terminal state or
// ctx expires. It is the unload barrier: after a nil return no tracked
// computation will run again.
func (tr *Tracker) Drain(ctx context.Context) (err error) {
	ctx, span := tracing.StartSpan(ctx, "tracker.Drain", "CONSUMER")
	defer func() { tracing.EndSpan(span, err) }()
	for {
		tr.mu.Lock()
		if len(tr.active) == 0 {
			tr.mu.Unlock()
			return nil
		}
		wait := tr.emptyCh
		tr.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
}
