package observability

import (
	"context"
	"errors"

	"trinity/internal/shared/logging"
)

// Config groups the observability settings.
type Config struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// Observability manages all observability components
type Observability struct {
	Metrics *MetricsCollector
	Tracer  *TracerProvider
	Batch   *BatchMetrics
	logger  logging.Logger
}

// New builds every component. Failures degrade to no-op components so a
// broken exporter never stops extraction.
func New(config Config, logger logging.Logger) *Observability {
	logger = logging.OrNop(logger)

	metrics, err := NewMetricsCollector(config.Metrics)
	if err != nil {
		logger.Error("Failed to initialize metrics: %v", err)
		metrics = &MetricsCollector{}
	}

	tracer, err := NewTracerProvider(config.Tracing)
	if err != nil {
		logger.Error("Failed to initialize tracing: %v", err)
		tracer = NoopTracerProvider()
	}

	logger.Debug("Observability initialized (metrics=%t, tracing=%t)",
		metrics.Enabled(), config.Tracing.Enabled)

	return &Observability{
		Metrics: metrics,
		Tracer:  tracer,
		Batch:   NewBatchMetrics(metrics.Registerer()),
		logger:  logger,
	}
}

// Shutdown gracefully shuts down all observability components
func (o *Observability) Shutdown(ctx context.Context) error {
	err := errors.Join(o.Metrics.Shutdown(ctx), o.Tracer.Shutdown(ctx))
	if err != nil {
		o.logger.Warn("Observability shutdown: %v", err)
	}
	return err
}
