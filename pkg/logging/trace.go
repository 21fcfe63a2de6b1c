package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// WithTrace returns logger enriched with trace_id/span_id from ctx's
// active span, or logger unchanged if ctx carries no valid span. This is
// what lets a log line from inside an executor phase be correlated with
// the OpenTelemetry span that phase ran under.
func WithTrace(ctx context.Context, logger *Logger) *Logger {
	if logger == nil {
		logger = Default()
	}
	if ctx == nil {
		return logger
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return logger
	}

	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}

// WithPhase adds trace context plus the executor phase name, so every log
// line from Phase 0-7 can be filtered by phase in aggregated logs.
func WithPhase(ctx context.Context, logger *Logger, phase string) *Logger {
	return WithTrace(ctx, logger).With(slog.String("phase", phase))
}

// WithPlan adds trace context plus a plan identifier, for correlating
// every log line touched by one edit plan's application.
func WithPlan(ctx context.Context, logger *Logger, planID string) *Logger {
	return WithTrace(ctx, logger).With(slog.String("plan_id", planID))
}
