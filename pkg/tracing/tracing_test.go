package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type nopExporter struct{}

func (nopExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (nopExporter) Shutdown(context.Context) error                             { return nil }

func withExporter(t *testing.T, fn func(context.Context, Config) (sdktrace.SpanExporter, error)) {
	t.Helper()
	orig := newTraceExporter
	newTraceExporter = fn
	t.Cleanup(func() { newTraceExporter = orig })
}

func TestInitTracerDisabledSkipsExporter(t *testing.T) {
	withExporter(t, func(context.Context, Config) (sdktrace.SpanExporter, error) {
		t.Fatal("exporter should not be built when tracing is disabled")
		return nil, nil
	})

	tp, tracer, err := InitTracer(context.Background(), Config{Enabled: false, Endpoint: "collector:4317"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, span := tracer.Start(context.Background(), "test.span")
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracerUsesConfiguredEndpoint(t *testing.T) {
	var got Config
	withExporter(t, func(_ context.Context, cfg Config) (sdktrace.SpanExporter, error) {
		got = cfg
		return nopExporter{}, nil
	})

	tp, tracer, err := InitTracer(context.Background(), Config{Enabled: true, Endpoint: "collector:4317", Insecure: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracer == nil {
		t.Fatal("expected tracer")
	}
	if got.Endpoint != "collector:4317" || !got.Insecure || got.Version != "dev" {
		t.Fatalf("unexpected exporter config %+v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracerDefaultsEndpoint(t *testing.T) {
	var endpoint string
	withExporter(t, func(_ context.Context, cfg Config) (sdktrace.SpanExporter, error) {
		endpoint = cfg.Endpoint
		return nopExporter{}, nil
	})

	tp, _, err := InitTracer(context.Background(), Config{Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tp.Shutdown(context.Background())
	if endpoint != defaultEndpoint {
		t.Fatalf("expected %s, got %s", defaultEndpoint, endpoint)
	}
}

func TestInitTracerExporterError(t *testing.T) {
	withExporter(t, func(context.Context, Config) (sdktrace.SpanExporter, error) {
		return nil, errors.New("dial failed")
	})

	_, _, err := InitTracer(context.Background(), Config{Enabled: true, Endpoint: "collector:4317"})
	if err == nil || !strings.Contains(err.Error(), "collector:4317") {
		t.Fatalf("expected wrapped exporter error, got %v", err)
	}
}

func TestSamplerRatio(t *testing.T) {
	cases := map[float64]string{
		0:    "root:AlwaysOnSampler",
		1:    "root:AlwaysOnSampler",
		0.25: "root:TraceIDRatioBased{0.25}",
	}
	for ratio, want := range cases {
		desc := Config{SampleRatio: ratio}.sampler().Description()
		if !strings.Contains(desc, want) {
			t.Errorf("ratio %v: expected %q in %q", ratio, want, desc)
		}
	}
}
