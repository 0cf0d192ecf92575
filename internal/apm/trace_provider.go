// Package apm sets up OpenTelemetry tracing for the SDK.
package apm

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/trading-sdk/internal/logger"
)

// Exporter selects where spans go.
type Exporter string

const (
	ConsoleExporter  Exporter = "console"
	ZipkinExporter   Exporter = "zipkin"
	OTLPGRPCExporter Exporter = "otlp-grpc"
	OTLPHTTPExporter Exporter = "otlp-http"
	NoExporter       Exporter = "none"
)

// Config describes the trace pipeline.
type Config struct {
	ServiceName string
	Exporter    Exporter
	Endpoint    string
	Headers     map[string]string
	// Writer receives console spans; stdout when nil.
	Writer io.Writer
	// SampleRatio in (0, 1]; 0 samples everything.
	SampleRatio float64
}

// TraceProvider owns the installed pipeline.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type noopProvider struct{}

func (noopProvider) Stop() error { return nil }

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ConsoleExporter, "":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())

	case ZipkinExporter:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("zipkin exporter needs an endpoint")
		}
		return zipkin.New(cfg.Endpoint)

	case OTLPGRPCExporter:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithHeaders(cfg.Headers)}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(cfg.Endpoint))
		}
		return otlptracegrpc.New(ctx, opts...)

	case OTLPHTTPExporter:
		opts := []otlptracehttp.Option{otlptracehttp.WithHeaders(cfg.Headers)}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	}
	return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
}

// NewTraceProvider builds the exporter named by cfg and installs it, with
// W3C trace-context propagation, as the global tracer provider.
func NewTraceProvider(cfg Config, log logger.LoggerInterface) (TraceProvider, error) {
	if cfg.Exporter == NoExporter {
		return noopProvider{}, nil
	}

	ctx := context.Background()
	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("otel.exporter", string(cfg.Exporter)),
		))
	if err != nil {
		// Schema URL conflicts with the SDK default; fall back to a schemaless resource.
		rsrc = resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName))
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing initialized", "exporter", string(cfg.Exporter), "endpoint", cfg.Endpoint)
	return &traceProvider{tp}, nil
}

// Stop flushes pending spans and shuts the pipeline down.
func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return o.tp.Shutdown(ctx)
}
