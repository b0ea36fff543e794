package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Standard attribute keys for task store spans and metrics
var (
	AttrOperation = attribute.Key("tasks.operation")
	AttrTaskID    = attribute.Key("tasks.id")
	AttrRequested = attribute.Key("tasks.requested")
	AttrSucceeded = attribute.Key("tasks.succeeded")
	AttrOutcome   = attribute.Key("tasks.outcome")
)

// StoreMetrics holds the task store instruments
type StoreMetrics struct {
	OperationDuration metric.Float64Histogram
	OperationErrors   metric.Int64Counter
	TasksMutated      metric.Int64Counter
}

// NewStoreMetrics creates all metric instruments from the given meter
func NewStoreMetrics(meter metric.Meter) (*StoreMetrics, error) {
	m := &StoreMetrics{}
	var err error

	m.OperationDuration, err = meter.Float64Histogram("tasks.store.duration",
		metric.WithDescription("Task store operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.OperationErrors, err = meter.Int64Counter("tasks.store.errors",
		metric.WithDescription("Task store operations that failed in storage"),
	)
	if err != nil {
		return nil, err
	}

	m.TasksMutated, err = meter.Int64Counter("tasks.store.mutated",
		metric.WithDescription("Task records created, updated or deleted"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Record reports the duration of one operation and counts it as an error if err is set
func (m *StoreMetrics) Record(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(AttrOperation.String(op))
	m.OperationDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.OperationErrors.Add(ctx, 1, attrs)
	}
}

// Mutated counts n task records changed by op
func (m *StoreMetrics) Mutated(ctx context.Context, op string, n int64) {
	if n <= 0 {
		return
	}
	m.TasksMutated.Add(ctx, n, metric.WithAttributes(AttrOperation.String(op)))
}

// StartSpan starts an internal span with common attributes
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}
