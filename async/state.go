package async

// State is the lifecycle of one asynchronous operation. An operation is
// created Started and moves to exactly one terminal state exactly once.
type State uint32

const (
	StateStarted State = iota
	StateCompleted
	StateCanceled
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStarted:
		return "Started"
	case StateCompleted:
		return "Completed"
	case StateCanceled:
		return "Canceled"
	case StateError:
		return "Error"
	}
	return "Unknown"
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s != StateStarted
}

// The task state word packs the lifecycle state into the low 16 bits and two
// scheduling flags into the top bits. Queued means a wake fired and the task
// is (or is about to be) in a run queue; Polling means a drive loop currently
// owns the task. Exactly one loop can own the task at a time.
const (
	stateMask   uint32 = 0xFFFF
	flagQueued  uint32 = 1 << 30
	flagPolling uint32 = 1 << 31
)
