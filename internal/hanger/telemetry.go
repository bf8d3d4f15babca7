package hanger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// InstrumentationName is the name used for OTEL instrumentation.
	InstrumentationName = "github.com/fyrsmithlabs/mepd/internal/hanger"
)

// Metrics provides OpenTelemetry metrics for the hanger package.
type Metrics struct {
	placementsTotal    metric.Int64Counter
	hangersTotal       metric.Int64Counter
	warningsTotal      metric.Int64Counter
	regenerationsTotal metric.Int64Counter
	hangersPerRun      metric.Int64Histogram

	// initialized tracks if metrics were successfully initialized
	initialized bool
}

// NewMetrics creates a new Metrics instance with the provided meter.
// If meter is nil, uses the global meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.placementsTotal, err = meter.Int64Counter(
		"hanger.placements.total",
		metric.WithDescription("Total number of placement batches run"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, err
	}

	m.hangersTotal, err = meter.Int64Counter(
		"hanger.hangers.total",
		metric.WithDescription("Hanger placements derived"),
		metric.WithUnit("{hanger}"),
	)
	if err != nil {
		return nil, err
	}

	m.warningsTotal, err = meter.Int64Counter(
		"hanger.warnings.total",
		metric.WithDescription("Non-fatal findings collected while placing hangers"),
		metric.WithUnit("{warning}"),
	)
	if err != nil {
		return nil, err
	}

	m.regenerationsTotal, err = meter.Int64Counter(
		"hanger.regenerations.total",
		metric.WithDescription("Post-adjustment hanger regenerations"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, err
	}

	m.hangersPerRun, err = meter.Int64Histogram(
		"hanger.hangers.per.batch",
		metric.WithDescription("Hangers derived per placement batch"),
		metric.WithUnit("{hanger}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 8, 13, 21, 34),
	)
	if err != nil {
		return nil, err
	}

	m.initialized = true
	return m, nil
}

// RecordPlacement records one finished placement batch.
func (m *Metrics) RecordPlacement(ctx context.Context, mode string, hangers, warnings int) {
	if m == nil || !m.initialized {
		return
	}
	attrs := metric.WithAttributes(attribute.String("hanger.mode", mode))
	m.placementsTotal.Add(ctx, 1, attrs)
	if hangers > 0 {
		m.hangersTotal.Add(ctx, int64(hangers), attrs)
	}
	if warnings > 0 {
		m.warningsTotal.Add(ctx, int64(warnings), attrs)
	}
	m.hangersPerRun.Record(ctx, int64(hangers), attrs)
}

// RecordRegeneration records one post-adjustment regeneration batch.
func (m *Metrics) RecordRegeneration(ctx context.Context, elements int) {
	if m == nil || !m.initialized {
		return
	}
	m.regenerationsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.Int("hanger.elements", elements)))
}

// Tracer returns a tracer for the hanger package.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a new span carrying the batch size.
func StartSpan(ctx context.Context, name string, elements int, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.Int("hanger.elements", elements),
	}
	allOpts := append([]trace.SpanStartOption{trace.WithAttributes(attrs...)}, opts...)
	return Tracer().Start(ctx, name, allOpts...)
}

// RecordError records an error on the current span.
func RecordError(ctx context.Context, err error, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err, trace.WithAttributes(attrs...))
	}
}

// SetSpanStatus sets the status on the current span.
func SetSpanStatus(ctx context.Context, code codes.Code, description string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetStatus(code, description)
	}
}
