package kom

import (
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/kom/descriptor"
	"github.com/viant/kom/memory"
	"github.com/viant/kom/tracing"
)

// Option customises the service.
type Option func(s *Service)

// WithConfig sets the configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithLogger sets the logger shared by the executors and the allocator.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllocator replaces the default slab-over-heap allocator stack.
func WithAllocator(allocator memory.Allocator) Option {
	return func(s *Service) {
		s.allocator = allocator
	}
}

// WithRegistry sets the interface-descriptor registry.
func WithRegistry(registry *descriptor.Registry) Option {
	return func(s *Service) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithDescriptors registers textual interface descriptors at construction.
func WithDescriptors(sources ...string) Option {
	return func(s *Service) {
		s.descriptorSources = append(s.descriptorSources, sources...)
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
