package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogExporter writes every finished span as one structured log record.
type LogExporter struct {
	logger *slog.Logger
}

func NewLogExporter(logger *slog.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		sc := s.SpanContext()
		attrs := []any{
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
			"span", s.Name(),
			"duration_ms", float64(s.EndTime().Sub(s.StartTime()).Microseconds()) / 1000,
		}
		if parent := s.Parent(); parent.IsValid() {
			attrs = append(attrs, "parent_span_id", parent.SpanID().String())
		}
		if st := s.Status(); st.Code == codes.Error {
			attrs = append(attrs, "status", "error", "error", st.Description)
		}
		for _, kv := range s.Attributes() {
			attrs = append(attrs, string(kv.Key), kv.Value.AsInterface())
		}
		e.logger.InfoContext(ctx, "span", attrs...)
	}
	return nil
}

func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}

// NewProvider builds a TracerProvider sampling sampleRatio of new traces
// (child spans follow their parent) and batching finished spans to exporter.
func NewProvider(serviceName string, sampleRatio float64, exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
	)
}

// Setup installs a log-exporting TracerProvider and the W3C trace-context
// propagator globally. The returned func flushes pending spans and stops
// the provider.
func Setup(serviceName string, sampleRatio float64) (shutdown func(context.Context) error) {
	tp := NewProvider(serviceName, sampleRatio, NewLogExporter(slog.Default().With("component", "tracing")))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	slog.Info("tracing enabled", "service", serviceName, "sample_ratio", sampleRatio)
	return tp.Shutdown
}
