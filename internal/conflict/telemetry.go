package conflict

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
	InstrumentationName = "github.com/fyrsmithlabs/mepd/internal/conflict"
)

// Metrics provides OpenTelemetry metrics for the conflict package.
type Metrics struct {
	resolutionsTotal  metric.Int64Counter
	resolvedTotal     metric.Int64Counter
	skippedTotal      metric.Int64Counter
	hangerRegenFailed metric.Int64Counter

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

	m.resolutionsTotal, err = meter.Int64Counter(
		"conflict.resolutions.total",
		metric.WithDescription("Total number of resolution batches run"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, err
	}

	m.resolvedTotal, err = meter.Int64Counter(
		"conflict.pairs.resolved.total",
		metric.WithDescription("Collision pairs resolved by an applied adjustment"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return nil, err
	}

	m.skippedTotal, err = meter.Int64Counter(
		"conflict.pairs.skipped.total",
		metric.WithDescription("Collision pairs skipped because resolution failed"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return nil, err
	}

	m.hangerRegenFailed, err = meter.Int64Counter(
		"conflict.hanger.regen.failed.total",
		metric.WithDescription("Best-effort hanger regenerations that failed"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, err
	}

	m.initialized = true
	return m, nil
}

// RecordResolution records one finished resolution batch.
func (m *Metrics) RecordResolution(ctx context.Context, pairs, resolved, skipped int) {
	if m == nil || !m.initialized {
		return
	}
	m.resolutionsTotal.Add(ctx, 1)
	if resolved > 0 {
		m.resolvedTotal.Add(ctx, int64(resolved))
	}
	if skipped > 0 {
		m.skippedTotal.Add(ctx, int64(skipped))
	}
}

// RecordHangerRegenFailure records one failed best-effort hanger pass.
func (m *Metrics) RecordHangerRegenFailure(ctx context.Context) {
	if m == nil || !m.initialized {
		return
	}
	m.hangerRegenFailed.Add(ctx, 1)
}

// Tracer returns a tracer for the conflict package.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a new span carrying the batch size.
func StartSpan(ctx context.Context, name string, pairs int, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.Int("conflict.pairs", pairs),
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
