package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	// ScopeName is the instrumentation scope for traces and metrics
	ScopeName = "github.com/yukikurage/task-tracker-api"
	// Version is reported as a resource attribute and by the info endpoint
	Version = "1.0.0"
)

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled     bool
	Exporter    string
	Endpoint    string
	ServiceName string
	SampleRate  float64
	// Writer receives stdout exporter output; nil means os.Stdout
	Writer io.Writer
}

// Provider wraps the tracer and meter providers with cleanup.
// A disabled provider hands out no-op instruments.
type Provider struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	shutdown       func(context.Context) error
}

// NoopProvider returns a provider whose spans and metrics are discarded
func NoopProvider() *Provider {
	tp := nooptrace.NewTracerProvider()
	mp := noop.NewMeterProvider()
	return &Provider{
		TracerProvider: tp,
		MeterProvider:  mp,
		Tracer:         tp.Tracer(ScopeName),
		Meter:          mp.Meter(ScopeName),
		shutdown:       func(context.Context) error { return nil },
	}
}

// Init sets up OpenTelemetry. The returned Provider must be shut down on exit.
func Init(ctx context.Context, cfg OTelConfig) (*Provider, error) {
	if !cfg.Enabled {
		return NoopProvider(), nil
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "task-tracker-api"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(Version),
			attribute.String("deployment.component", "task-store"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	metricExporter, err := newMetricExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return &Provider{
		TracerProvider: tp,
		MeterProvider:  mp,
		Tracer:         tp.Tracer(ScopeName),
		Meter:          mp.Meter(ScopeName),
		shutdown: func(ctx context.Context) error {
			return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
		},
	}, nil
}

// Shutdown flushes and shuts down the provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

func newExporter(ctx context.Context, cfg OTelConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp-http":
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.endpoint()),
			otlptracehttp.WithInsecure(),
		)
	case "stdout", "":
		return stdouttrace.New(stdouttrace.WithWriter(cfg.writer()), stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown exporter: %s (supported: otlp-http, stdout)", cfg.Exporter)
	}
}

func newMetricExporter(ctx context.Context, cfg OTelConfig) (sdkmetric.Exporter, error) {
	switch cfg.Exporter {
	case "otlp-http":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(cfg.endpoint()),
			otlpmetrichttp.WithInsecure(),
		)
	case "stdout", "":
		return stdoutmetric.New(stdoutmetric.WithWriter(cfg.writer()))
	default:
		return nil, fmt.Errorf("unknown exporter: %s (supported: otlp-http, stdout)", cfg.Exporter)
	}
}

func (c OTelConfig) endpoint() string {
	if c.Endpoint == "" {
		return "localhost:4318"
	}
	return c.Endpoint
}

func (c OTelConfig) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}
