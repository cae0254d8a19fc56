package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/hornbeam/pkg/observability"
)

func filteredProvider(logger *slog.Logger) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	filter := observability.NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter), logger)

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(filter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), exporter
}

func TestAttributeFilter_AllowsKnownKeys(t *testing.T) {
	t.Parallel()

	tp, exporter := filteredProvider(nil)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(
		attribute.String("hornbeam.from", "rust"),
		attribute.Int("hornbeam.replacements", 3),
		attribute.String("mcp.tool", "hornbeam_rewrite"),
		attribute.String("error.type", "contract"),
		attribute.Bool("error", true),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0])
	assert.Equal(t, "rust", attrs["hornbeam.from"])
	assert.Equal(t, int64(3), attrs["hornbeam.replacements"])
	assert.Equal(t, "hornbeam_rewrite", attrs["mcp.tool"])
	assert.Equal(t, "contract", attrs["error.type"])
	assert.Equal(t, true, attrs["error"])
}

func TestAttributeFilter_StripsSourceText(t *testing.T) {
	t.Parallel()

	tp, exporter := filteredProvider(nil)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(
		attribute.String("hornbeam.input.text", "fn secret() {}"),
		attribute.String("rule.before", "fn a() {}"),
		attribute.String("rule.after", "fn a();"),
		attribute.String("request.body", "{}"),
		attribute.String("user.id", "12345"),
		attribute.String("rule.name", "declare"),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0])
	assert.NotContains(t, attrs, "hornbeam.input.text")
	assert.NotContains(t, attrs, "rule.before")
	assert.NotContains(t, attrs, "rule.after")
	assert.NotContains(t, attrs, "request.body")
	assert.NotContains(t, attrs, "user.id")
	assert.Equal(t, "declare", attrs["rule.name"])
}

func TestAttributeFilter_WarnsInDebugMode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	tp, _ := filteredProvider(logger)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(attribute.String("hornbeam.source", "fn a() {}"))
	span.End()

	assert.Contains(t, buf.String(), "hornbeam.source")
	assert.Contains(t, buf.String(), "blocked")
}

// spanAttrMap converts a span's attributes into a map for easy assertion.
func spanAttrMap(s tracetest.SpanStub) map[string]any {
	m := make(map[string]any, len(s.Attributes))
	for _, a := range s.Attributes {
		m[string(a.Key)] = a.Value.AsInterface()
	}

	return m
}
