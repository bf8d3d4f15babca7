package collision

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
	InstrumentationName = "github.com/fyrsmithlabs/mepd/internal/collision"
)

// Metrics provides OpenTelemetry metrics for the collision package.
type Metrics struct {
	detectionsTotal metric.Int64Counter
	pairsTotal      metric.Int64Counter
	skippedTotal    metric.Int64Counter
	candidateCount  metric.Int64Histogram

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

	m.detectionsTotal, err = meter.Int64Counter(
		"collision.detections.total",
		metric.WithDescription("Total number of detection batches run"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, err
	}

	m.pairsTotal, err = meter.Int64Counter(
		"collision.pairs.total",
		metric.WithDescription("Total number of interfering pairs found"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return nil, err
	}

	m.skippedTotal, err = meter.Int64Counter(
		"collision.pairs.skipped.total",
		metric.WithDescription("Pairs skipped because the intersector failed"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return nil, err
	}

	m.candidateCount, err = meter.Int64Histogram(
		"collision.candidates.count",
		metric.WithDescription("Candidate elements per detection batch"),
		metric.WithUnit("{element}"),
		metric.WithExplicitBucketBoundaries(2, 5, 10, 25, 50, 100, 250, 500),
	)
	if err != nil {
		return nil, err
	}

	m.initialized = true
	return m, nil
}

// RecordDetection records one finished detection batch.
func (m *Metrics) RecordDetection(ctx context.Context, level string, candidates, pairs, skipped int) {
	if m == nil || !m.initialized {
		return
	}
	attrs := metric.WithAttributes(attribute.String("level", level))
	m.detectionsTotal.Add(ctx, 1, attrs)
	m.candidateCount.Record(ctx, int64(candidates), attrs)
	if pairs > 0 {
		m.pairsTotal.Add(ctx, int64(pairs), attrs)
	}
	if skipped > 0 {
		m.skippedTotal.Add(ctx, int64(skipped), attrs)
	}
}

// Tracer returns a tracer for the collision package.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a new span carrying the detection level.
func StartSpan(ctx context.Context, name, level string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("collision.level", level),
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
