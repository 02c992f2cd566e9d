package kom

import (
	"go.uber.org/zap"

	"github.com/viant/kom/async"
	"github.com/viant/kom/async/dispatch"
	"github.com/viant/kom/async/workitem"
	"github.com/viant/kom/descriptor"
	"github.com/viant/kom/memory"
)

// Service is the runtime façade: it owns the allocator stack, the
// interface-descriptor registry, the two scheduling back-ends and the unload
// tracker, wired from one configuration.
type Service struct {
	config            *Config
	logger            *zap.Logger
	allocator         memory.Allocator
	slab              *memory.Slab
	registry          *descriptor.Registry
	descriptorSources []string
	budgets           async.Budgets
	dispatch          *dispatch.Executor
	workItem          *workitem.Executor
	tracker           *async.Tracker
	runtime           *Runtime
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	budgets, err := async.ParseBudgets(s.config.Budgets)
	if err != nil {
		return err
	}
	s.budgets = budgets

	if s.allocator == nil {
		s.slab = memory.NewSlab(memory.NewHeap(), s.logger)
		s.allocator = s.slab
	}
	if s.dispatch, err = dispatch.New(
		dispatch.WithConfig(s.config.Dispatch),
		dispatch.WithLogger(s.logger),
	); err != nil {
		return err
	}
	if s.workItem, err = workitem.New(
		workitem.WithConfig(s.config.WorkItem),
		workitem.WithLogger(s.logger),
	); err != nil {
		return err
	}
	for _, source := range s.descriptorSources {
		if _, err := s.registry.RegisterSource(source); err != nil {
			return err
		}
	}
	s.runtime = &Runtime{service: s}
	return nil
}

// Registry returns the interface-descriptor registry.
func (s *Service) Registry() *descriptor.Registry {
	return s.registry
}

// Allocator returns the allocator objects and operations are created from.
func (s *Service) Allocator() memory.Allocator {
	return s.allocator
}

// Budgets returns the effective poll-budget profile.
func (s *Service) Budgets() async.Budgets {
	return s.budgets
}

// Tracker returns the unload-barrier tracker every runtime spawn registers
// with.
func (s *Service) Tracker() *async.Tracker {
	return s.tracker
}

// Dispatch returns the elevated-priority executor.
func (s *Service) Dispatch() *dispatch.Executor {
	return s.dispatch
}

// WorkItem returns the normal-priority executor.
func (s *Service) WorkItem() *workitem.Executor {
	return s.workItem
}

// Runtime returns the lifecycle handle.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// New creates a service from the supplied options.
func New(options ...Option) (*Service, error) {
	s := &Service{
		config:   DefaultConfig(),
		registry: descriptor.NewRegistry(),
		tracker:  async.NewTracker(),
	}
	if err := s.init(options); err != nil {
		return nil, err
	}
	return s, nil
}
