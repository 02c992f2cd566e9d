package async

// Level is the execution context a computation runs in.
type Level int

const (
	// LevelPassive is an ordinary context: blocking and pageable access are
	// allowed.
	LevelPassive Level = iota
	// LevelDispatch is the elevated context: bounded duration, no blocking,
	// resident memory only.
	LevelDispatch
)

// String returns the level name.
func (l Level) String() string {
	if l == LevelDispatch {
		return "dispatch"
	}
	return "passive"
}

// Phase tells a computation whether it is running its main path or the
// cancellation cleanup path.
type Phase int

const (
	PhaseMain Phase = iota
	PhaseCleanup
)

// Waker re-inserts its computation into the run queue. Safe to invoke from
// any context, any number of times; duplicate wakes for one pending resume
// coalesce.
type Waker struct {
	wake func()
}

// NewWaker wraps a wake function. Used by hosts that drive a future outside
// an executor.
func NewWaker(wake func()) *Waker {
	return &Waker{wake: wake}
}

// Wake signals that the computation can make progress.
func (w *Waker) Wake() {
	if w != nil && w.wake != nil {
		w.wake()
	}
}

// Context is passed to every poll. It carries the waker, the execution level,
// the current phase and the cooperative cancellation flag.
type Context struct {
	waker  *Waker
	level  Level
	phase  Phase
	cancel *CancelHandle
}

// Waker returns the waker that resumes this computation.
func (c *Context) Waker() *Waker {
	return c.waker
}

// Level returns the execution level the computation is running at.
func (c *Context) Level() Level {
	return c.level
}

// Phase returns the current execution phase.
func (c *Context) Phase() Phase {
	return c.phase
}

// Canceled reports whether cancellation has been requested, without consuming
// the request.
func (c *Context) Canceled() bool {
	return c.cancel != nil && c.cancel.Requested()
}

// TakeCancellationRequest consumes a pending cancellation request. It returns
// true at most once per request regardless of how many observers race on it.
func (c *Context) TakeCancellationRequest() bool {
	if c.cancel == nil {
		return false
	}
	return c.cancel.TakeRequest()
}
