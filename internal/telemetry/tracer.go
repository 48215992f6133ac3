package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans created by this module.
const InstrumentationName = "github.com/tjfontaine/shopgate/graphql"

// Tracer returns the tracer used for GraphQL field spans.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// InitTracer initializes OpenTelemetry tracing.
// exporter is "stdout" or "none"; with "none" the global no-op provider is kept.
func InitTracer(serviceName, exporter string, logger *slog.Logger) (func(context.Context) error, error) {
	var spanExporter sdktrace.SpanExporter
	switch exporter {
	case "", "none":
		logger.Info("OpenTelemetry disabled", slog.String("service", serviceName))
		return func(context.Context) error { return nil }, nil
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		spanExporter = exp
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", exporter)
	}

	// Create resource with service name
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	logger.Info("OpenTelemetry initialized",
		slog.String("service", serviceName),
		slog.String("exporter", exporter),
	)

	return tp.Shutdown, nil
}
