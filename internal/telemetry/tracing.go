package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer bundles the tracer the executor starts spans on with the
// provider it came from, so a caller can shut the provider down on exit.
//
// No span exporter is wired here: this package's dependency set never
// pulls in otlptracegrpc or grpc, so spans are created, sampled, and
// ended in-process but never shipped anywhere. NewTracer builds its own
// provider and Tracer does not expose it, so no exporter can be attached
// to it from outside this package.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// NewTracer creates a TracerProvider for serviceName and a Tracer drawn
// from it, sampling every span — the core's plan-apply rate is low
// enough that always-on sampling is cheap.
func NewTracer(serviceName string) *Tracer {
	res := resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName), attribute.String("component", "editplan-executor"))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	)
	return &Tracer{
		tracer:   provider.Tracer(serviceName),
		provider: provider,
	}
}

// StartSpan starts a child span named name under ctx, returning the
// span-carrying context and a finish function that records err (if any)
// and ends the span.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// Shutdown flushes and stops the underlying provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}
