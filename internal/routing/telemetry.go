package routing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/mepd/internal/element"
)

const (
	// InstrumentationName is the name used for OTEL instrumentation.
	InstrumentationName = "github.com/fyrsmithlabs/mepd/internal/routing"
)

// Metrics provides OpenTelemetry metrics for the routing package.
type Metrics struct {
	routesTotal   metric.Int64Counter
	findingsTotal metric.Int64Counter
	routePoints   metric.Int64Histogram
	routeLength   metric.Float64Histogram

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

	m.routesTotal, err = meter.Int64Counter(
		"routing.routes.total",
		metric.WithDescription("Total number of routes planned"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return nil, err
	}

	m.findingsTotal, err = meter.Int64Counter(
		"routing.findings.total",
		metric.WithDescription("Total validation findings attached to planned routes"),
		metric.WithUnit("{finding}"),
	)
	if err != nil {
		return nil, err
	}

	m.routePoints, err = meter.Int64Histogram(
		"routing.route.points",
		metric.WithDescription("Number of points per planned route"),
		metric.WithUnit("{point}"),
		metric.WithExplicitBucketBoundaries(2, 3, 4, 6, 8, 12, 16, 24),
	)
	if err != nil {
		return nil, err
	}

	m.routeLength, err = meter.Float64Histogram(
		"routing.route.length.meters",
		metric.WithDescription("Plan-view length of planned routes in meters"),
		metric.WithUnit("m"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 20, 50, 100, 200),
	)
	if err != nil {
		return nil, err
	}

	m.initialized = true
	return m, nil
}

// RecordRoute records one planned route and its findings.
func (m *Metrics) RecordRoute(ctx context.Context, kind element.Kind, pattern string, points int, lengthM float64, warnings, errors int) {
	if m == nil || !m.initialized {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("pattern", pattern),
	)
	m.routesTotal.Add(ctx, 1, attrs)
	m.routePoints.Record(ctx, int64(points), attrs)
	m.routeLength.Record(ctx, lengthM, attrs)
	if warnings > 0 {
		m.findingsTotal.Add(ctx, int64(warnings), metric.WithAttributes(attribute.String("severity", "warning")))
	}
	if errors > 0 {
		m.findingsTotal.Add(ctx, int64(errors), metric.WithAttributes(attribute.String("severity", "error")))
	}
}

// Tracer returns a tracer for the routing package.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a new span carrying the routed element's kind and system.
func StartSpan(ctx context.Context, name, kind, system string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("routing.kind", kind),
		attribute.String("routing.system", system),
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
