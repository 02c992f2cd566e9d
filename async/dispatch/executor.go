package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/viant/kom/async"
	"github.com/viant/kom/internal/clock"
)

// Config for the elevated-priority executor.
type Config struct {
	// CPUs is the number of logical-CPU run queues.
	CPUs int `yaml:"cpus" json:"cpus"`
	// WatchdogThreshold flags drive-loop invocations that overstay the
	// elevated time slice. Zero disables the watchdog. Diagnostic only, not
	// a correctness mechanism.
	WatchdogThreshold time.Duration `yaml:"watchdogThreshold" json:"watchdogThreshold"`
}

// DefaultConfig returns a standard configuration.
func DefaultConfig() Config {
	return Config{
		CPUs:              runtime.NumCPU(),
		WatchdogThreshold: 100 * time.Millisecond,
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.CPUs < 1 {
		return fmt.Errorf("dispatch executor needs at least one cpu, had: %v", c.CPUs)
	}
	return nil
}

// runQueue is one logical CPU's run queue. Ready tasks always append at the
// tail, so a budget-exhausted task yields to everything already waiting.
type runQueue struct {
	mu     sync.Mutex
	tasks  []*async.Task
	notify chan struct{}
}

func newRunQueue() *runQueue {
	return &runQueue{notify: make(chan struct{}, 1)}
}

func (q *runQueue) push(task *async.Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *runQueue) pop() *async.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil
	}
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	return task
}

func (q *runQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Executor models the elevated-priority back-end: one run queue and one
// run-to-completion worker per logical CPU. Computations driven here must not
// block; long chains of work are absorbed by the poll budget, not by
// preemption.
type Executor struct {
	config Config
	logger *zap.Logger
	table  *async.CancelTable
	queues []*runQueue
	next   atomic.Uint64

	wg       sync.WaitGroup
	shutdown chan struct{}
	started  atomic.Bool
	stopped  atomic.Bool
}

// Option customises the executor.
type Option func(*Executor)

// WithConfig sets the configuration.
func WithConfig(config Config) Option {
	return func(e *Executor) {
		e.config = config
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an elevated-priority executor. The cancellation table is owned
// by the executor's lifecycle: created here, torn down at Shutdown.
func New(options ...Option) (*Executor, error) {
	e := &Executor{
		config:   DefaultConfig(),
		logger:   zap.NewNop(),
		shutdown: make(chan struct{}),
	}
	for _, option := range options {
		option(e)
	}
	if err := e.config.Validate(); err != nil {
		return nil, err
	}
	e.table = async.NewCancelTable(e.config.CPUs, e.logger)
	e.queues = make([]*runQueue, e.config.CPUs)
	for i := range e.queues {
		e.queues[i] = newRunQueue()
	}
	return e, nil
}

// Start launches the per-CPU workers.
func (e *Executor) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatch executor already started")
	}
	for _, queue := range e.queues {
		e.wg.Add(1)
		go e.worker(queue)
	}
	_ = ctx
	return nil
}

// Shutdown stops the workers and waits for the in-flight invocations to
// return. Callers drain their trackers first so no suspended computation is
// stranded in a queue.
func (e *Executor) Shutdown(ctx context.Context) error {
	if !e.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(e.shutdown)
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue implements async.Executor, appending at the task's slot queue tail.
func (e *Executor) Enqueue(task *async.Task) {
	slot := task.Slot()
	if slot < 0 || slot >= len(e.queues) {
		slot = 0
	}
	e.queues[slot].push(task)
}

// Level implements async.Executor.
func (e *Executor) Level() async.Level {
	return async.LevelDispatch
}

// AssignSlot implements async.SlotAssigner, distributing spawns round-robin
// across the logical CPUs.
func (e *Executor) AssignSlot() (int, *async.CancelTable) {
	slot := int(e.next.Add(1)-1) % len(e.queues)
	return slot, e.table
}

// CancelTable exposes the per-CPU cancellation table.
func (e *Executor) CancelTable() *async.CancelTable {
	return e.table
}

// QueueDepth returns how many ready tasks wait on a slot's queue.
func (e *Executor) QueueDepth(slot int) int {
	if slot < 0 || slot >= len(e.queues) {
		return 0
	}
	return e.queues[slot].depth()
}

func (e *Executor) worker(queue *runQueue) {
	defer e.wg.Done()
	for {
		task := queue.pop()
		if task == nil {
			select {
			case <-queue.notify:
				continue
			case <-e.shutdown:
				return
			}
		}
		started := clock.Now()
		task.Invoke()
		if e.config.WatchdogThreshold > 0 {
			if elapsed := clock.Now().Sub(started); elapsed > e.config.WatchdogThreshold {
				e.logger.Warn("drive-loop invocation exceeded watchdog threshold",
					zap.String("task", task.ID()),
					zap.Duration("elapsed", elapsed),
					zap.Duration("threshold", e.config.WatchdogThreshold))
			}
		}
	}
}
