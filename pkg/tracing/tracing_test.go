package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := InitWithExporter(context.Background(), "test-service", exporter)
	if err != nil {
		t.Fatalf("初始化Tracer失败: %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })
	return exporter
}

func TestInitTracer(t *testing.T) {
	// Collector不可达时初始化也应成功(连接是惰性的)
	shutdown, err := InitTracer(context.Background(), "test-service", "localhost:4317")
	if err != nil {
		t.Fatalf("初始化Tracer失败: %v", err)
	}
	_ = shutdown(context.Background())
}

func TestStartSpan(t *testing.T) {
	exporter := setupRecorder(t)

	t.Run("子Span继承TraceID", func(t *testing.T) {
		ctx, root := StartSpan(context.Background(), TracerName, "Root")
		_, child := StartSpan(ctx, TracerName, "Child")

		if child.SpanContext().TraceID() != root.SpanContext().TraceID() {
			t.Error("子Span的TraceID应与根Span相同")
		}
		if child.SpanContext().SpanID() == root.SpanContext().SpanID() {
			t.Error("子Span的SpanID不应与根Span相同")
		}
		child.End()
		root.End()
	})

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("期望导出2个Span, 实际%d", len(spans))
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("子Span的父Span应为Root")
	}
}

func TestEndSpan(t *testing.T) {
	exporter := setupRecorder(t)

	_, ok := StartSpan(context.Background(), TracerName, "Ok")
	EndSpan(ok, nil)

	_, failed := StartSpan(context.Background(), TracerName, "Failed")
	EndSpan(failed, errors.New("boom"))

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("期望导出2个Span, 实际%d", len(spans))
	}
	if spans[0].Status.Code != codes.Ok {
		t.Errorf("成功的Span状态应为Ok, 实际%v", spans[0].Status.Code)
	}
	if spans[1].Status.Code != codes.Error || spans[1].Status.Description != "boom" {
		t.Errorf("失败的Span状态错误: %+v", spans[1].Status)
	}
	if len(spans[1].Events) == 0 {
		t.Error("失败的Span应记录error事件")
	}
}

func TestExtractIDs(t *testing.T) {
	setupRecorder(t)

	if id := ExtractTraceID(context.Background()); id != "" {
		t.Errorf("无Span时TraceID应为空, 实际%s", id)
	}

	ctx, span := StartSpan(context.Background(), TracerName, "Extract")
	defer span.End()

	if got := ExtractTraceID(ctx); got != span.SpanContext().TraceID().String() || len(got) != 32 {
		t.Errorf("TraceID错误: %s", got)
	}
	if got := ExtractSpanID(ctx); got != span.SpanContext().SpanID().String() || len(got) != 16 {
		t.Errorf("SpanID错误: %s", got)
	}
}
