package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"trinity/internal/parser"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "trinity"

// MetricsCollector records parser instrumentation. It implements
// parser.Observer so a single collector can be shared by every parser in a
// process.
type MetricsCollector struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	extractions     metric.Int64Counter
	toolCalls       metric.Int64Counter
	fragments       metric.Int64Counter
	callsPerExtract metric.Int64Histogram

	// Optional callbacks used by tests to assert instrumentation behavior
	testHooks MetricsTestHooks
}

var _ parser.Observer = (*MetricsCollector)(nil)

// MetricsTestHooks exposes callbacks that tests can use to assert
// instrumentation without scraping the registry.
type MetricsTestHooks struct {
	Extraction func(outcome parser.ExtractionOutcome, calls int)
	Fragment   func(outcome parser.FragmentOutcome)
}

// SetTestHooks registers callbacks that are invoked whenever the matching
// metric is recorded.
func (m *MetricsCollector) SetTestHooks(hooks MetricsTestHooks) {
	if m == nil {
		return
	}
	m.testHooks = hooks
}

// MetricsConfig configures the metrics collector
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewMetricsCollector creates a collector backed by its own Prometheus
// registry. A disabled config yields a collector whose methods are no-ops.
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(meterName)

	extractions, err := meter.Int64Counter(
		"trinity_extractions",
		metric.WithDescription("One-shot extractions by outcome"),
		metric.WithUnit("{extraction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractions counter: %w", err)
	}

	toolCalls, err := meter.Int64Counter(
		"trinity_tool_calls",
		metric.WithDescription("Tool calls produced, by extraction mode"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_calls counter: %w", err)
	}

	fragments, err := meter.Int64Counter(
		"trinity_fragments",
		metric.WithDescription("Streamed fragments by outcome"),
		metric.WithUnit("{fragment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fragments counter: %w", err)
	}

	callsPerExtract, err := meter.Int64Histogram(
		"trinity_extraction_calls",
		metric.WithDescription("Tool calls found per one-shot extraction"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 4, 8, 16),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction_calls histogram: %w", err)
	}

	return &MetricsCollector{
		registry:        registry,
		provider:        provider,
		extractions:     extractions,
		toolCalls:       toolCalls,
		fragments:       fragments,
		callsPerExtract: callsPerExtract,
	}, nil
}

// Enabled reports whether the collector exports anything.
func (m *MetricsCollector) Enabled() bool {
	return m != nil && m.registry != nil
}

// ObserveExtraction records a one-shot extraction.
func (m *MetricsCollector) ObserveExtraction(outcome parser.ExtractionOutcome, calls int) {
	if m == nil {
		return
	}
	if hook := m.testHooks.Extraction; hook != nil {
		hook(outcome, calls)
	}
	if m.extractions == nil {
		return
	}
	ctx := context.Background()
	m.extractions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
	m.callsPerExtract.Record(ctx, int64(calls))
	if calls > 0 {
		m.toolCalls.Add(ctx, int64(calls), metric.WithAttributes(attribute.String("mode", "oneshot")))
	}
}

// ObserveFragment records one streamed fragment.
func (m *MetricsCollector) ObserveFragment(outcome parser.FragmentOutcome) {
	if m == nil {
		return
	}
	if hook := m.testHooks.Fragment; hook != nil {
		hook(outcome)
	}
	if m.fragments == nil {
		return
	}
	ctx := context.Background()
	m.fragments.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
	if outcome == parser.FragmentCall {
		m.toolCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", "stream")))
	}
}

// Registerer exposes the collector's registry so other Prometheus metrics
// can be exported alongside the parser metrics. Nil when disabled.
func (m *MetricsCollector) Registerer() prometheus.Registerer {
	if !m.Enabled() {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsCollector) Handler() http.Handler {
	if !m.Enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText dumps every gathered metric family in the Prometheus text format.
func (m *MetricsCollector) WriteText(w io.Writer) error {
	if !m.Enabled() {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("write metric family %s: %w", family.GetName(), err)
		}
	}
	return nil
}

// Shutdown flushes and stops the meter provider.
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
