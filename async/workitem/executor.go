package workitem

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/viant/kom/async"
	"github.com/viant/kom/status"
)

// Config for the normal-priority executor.
type Config struct {
	// Workers is the number of consuming goroutines.
	Workers int `yaml:"workers" json:"workers"`
	// QueueBuffer is the ready-task channel capacity.
	QueueBuffer int `yaml:"queueBuffer" json:"queueBuffer"`
}

// DefaultConfig returns a standard configuration.
func DefaultConfig() Config {
	return Config{
		Workers:     runtime.NumCPU(),
		QueueBuffer: 100,
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("work-item executor needs at least one worker, had: %v", c.Workers)
	}
	if c.QueueBuffer < 1 {
		return fmt.Errorf("work-item queue buffer must be positive, had: %v", c.QueueBuffer)
	}
	return nil
}

// Executor models the normal-priority back-end: a buffered ready queue
// consumed by a worker pool. Computations driven here may block and touch
// non-resident state, which is exactly what disqualifies them from the
// dispatch level.
type Executor struct {
	config     Config
	logger     *zap.Logger
	levelQuery func() async.Level
	tasks      chan *async.Task

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

// WithLevelQuery installs the host's current-execution-level query, consulted
// by Submit to reject callers at an incompatible level.
func WithLevelQuery(query func() async.Level) Option {
	return func(e *Executor) {
		e.levelQuery = query
	}
}

// New creates a normal-priority executor.
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
	e.tasks = make(chan *async.Task, e.config.QueueBuffer)
	return e, nil
}

// Start launches the worker pool.
func (e *Executor) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return fmt.Errorf("work-item executor already started")
	}
	for i := 0; i < e.config.Workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	_ = ctx
	return nil
}

// Shutdown stops the workers after they drain the queued tasks.
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

// Enqueue implements async.Executor. A full queue blocks the producer, which
// is acceptable at the passive level this executor serves.
func (e *Executor) Enqueue(task *async.Task) {
	select {
	case e.tasks <- task:
	case <-e.shutdown:
		e.logger.Warn("work item dropped, executor shut down", zap.String("task", task.ID()))
	}
}

// Level implements async.Executor.
func (e *Executor) Level() async.Level {
	return async.LevelPassive
}

// QueueSize returns the number of ready tasks waiting for a worker.
func (e *Executor) QueueSize() int {
	return len(e.tasks)
}

func (e *Executor) currentLevel() async.Level {
	if e.levelQuery == nil {
		return async.LevelPassive
	}
	return e.levelQuery()
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for {
		select {
		case task := <-e.tasks:
			task.Invoke()
		case <-e.shutdown:
			for {
				select {
				case task := <-e.tasks:
					task.Invoke()
				default:
					return
				}
			}
		}
	}
}

// Submit spawns future on the work-item executor after checking the caller's
// execution level. A caller at the dispatch level is rejected with the retry
// code and an Error-state operation rather than silently blocking; it should
// re-submit from a passive context.
func Submit[T any](e *Executor, future async.Future[T], options ...async.SpawnOption) (async.Operation[T], *async.CancelHandle, status.Status) {
	if e.currentLevel() == async.LevelDispatch {
		return async.SpawnError[T](status.Retry), nil, status.Retry
	}
	op, handle := async.Spawn(e, future, options...)
	return op, handle, status.Success
}
