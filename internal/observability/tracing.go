// Package observability wires the OpenTelemetry tracer provider used by the
// search layer (internal/search/hybrid's package-level tracer); the HTTP
// layer starts no spans. Tracing is opt-in: with no OTLP endpoint configured the
// global no-op tracer stays installed and spans are free.
package observability

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"

	"neo-alexandria/internal/config"
)

// Shutdown flushes and stops the tracer provider. Safe to call even when
// tracing was never enabled.
type Shutdown func(ctx context.Context) error

// InitTracing installs a global TracerProvider backed by an OTLP/gRPC
// exporter when cfg.Enabled, otherwise leaves the default no-op provider in
// place and returns a Shutdown that does nothing.
func InitTracing(cfg config.Tracing, environment string) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	))
	if err != nil {
		return nil, fmt.Errorf("observability: create otlp exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(environment, cfg.SampleRatio)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		fmt.Fprintf(os.Stderr, "otel: %v\n", err)
	}))

	return tp.Shutdown, nil
}

func sampler(environment string, ratio float64) sdktrace.Sampler {
	if environment == "development" {
		return sdktrace.AlwaysSample()
	}
	if ratio <= 0 {
		ratio = 0.1
	}
	return sdktrace.TraceIDRatioBased(ratio)
}
