// Package tracing provides OpenTelemetry span helpers for a research-loop
// hop (StartHop) and an activity call (StartActivity). The Search, Extract,
// Analyze and Synthesize activities open activity spans; the workflow does
// not open hop spans. It intentionally carries no OTLP exporter: spans are
// created and propagated through context for in-process correlation (and so
// a real exporter can be plugged in later via otel.SetTracerProvider),
// without requiring a collector endpoint at request time.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer oteltrace.Tracer

// Config controls whether a sampled TracerProvider is installed.
type Config struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Initialize installs a TracerProvider. When cfg.Enabled is false a no-op
// tracer is used so Start* helpers remain safe to call unconditionally.
func Initialize(cfg Config, logger *zap.Logger) error {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "deepresearch"
	}

	if !cfg.Enabled {
		tracer = otel.Tracer(cfg.ServiceName)
		logger.Info("Tracing disabled")
		return nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return fmt.Errorf("build tracing resource: %w", err)
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1.0
	}

	tp := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(ratio)),
	)
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer(cfg.ServiceName)

	logger.Info("Tracing initialized", zap.Float64("sample_ratio", ratio))
	return nil
}

// StartHop opens a span for one research-loop hop.
func StartHop(ctx context.Context, depth int, mode string) (context.Context, oteltrace.Span) {
	if tracer == nil {
		tracer = otel.Tracer("deepresearch")
	}
	ctx, span := tracer.Start(ctx, "research.hop")
	span.SetAttributes(
		attribute.Int("research.depth", depth),
		attribute.String("research.mode", mode),
	)
	return ctx, span
}

// StartActivity opens a span for one activity invocation within a hop
// (search, extract, analyze, synthesize, ...).
func StartActivity(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	if tracer == nil {
		tracer = otel.Tracer("deepresearch")
	}
	return tracer.Start(ctx, "research.activity."+name)
}

// W3CTraceparent renders the current span's context as a W3C traceparent
// header value, for propagation into outbound capability calls.
func W3CTraceparent(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	sc := span.SpanContext()
	return fmt.Sprintf("00-%s-%s-%02x", sc.TraceID().String(), sc.SpanID().String(), sc.TraceFlags())
}
