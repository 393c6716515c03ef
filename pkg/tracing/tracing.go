// Package tracing 封装OpenTelemetry追踪
//
// 借阅、归还等写操作各自创建一个Span,属性中带上book_id/user_id/loan_id,
// 失败时记录错误并标记状态。日志通过ExtractTraceID与追踪关联。
//
//	ctx, span := tracing.StartSpan(ctx, tracing.TracerName, "loan.Borrow")
//	defer func() { tracing.EndSpan(span, err) }()
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName 本服务使用的Tracer名称
const TracerName = "library"

// InitTracer 初始化全局Tracer Provider
//
// endpoint为OTLP gRPC地址(host:port,如localhost:4317),不含协议前缀。
// 返回的shutdown必须在退出前调用,否则最后一批Span可能丢失。
func InitTracer(ctx context.Context, serviceName, endpoint string) (func(context.Context) error, error) {
	// 1. OTLP gRPC Exporter(连接是惰性的,Collector未启动不会导致失败)
	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(
		initCtx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("创建OTLP exporter失败: %w", err)
	}

	return install(initCtx, serviceName, sdktrace.WithBatcher(exporter))
}

// InitWithExporter 使用自定义Exporter初始化(测试中配合tracetest使用)
// 使用同步处理器,Span结束后立即可见
func InitWithExporter(ctx context.Context, serviceName string, exporter sdktrace.SpanExporter) (func(context.Context) error, error) {
	return install(ctx, serviceName, sdktrace.WithSyncer(exporter))
}

func install(ctx context.Context, serviceName string, processor sdktrace.TracerProviderOption) (func(context.Context) error, error) {
	// 2. 资源属性,service.name用于在Jaeger中分组
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("创建资源属性失败: %w", err)
	}

	// 3. Tracer Provider(全量采样)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		processor,
		sdktrace.WithResource(res),
	)

	// 4. 全局Provider与W3C传播器
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

// StartSpan 创建一个新的Span
// ctx中已有Span时新Span成为其子Span;必须把返回的ctx传给下游调用
func StartSpan(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName)
}

// EndSpan 根据err设置状态并结束Span
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// ExtractTraceID 从Context提取TraceID(32位十六进制),没有有效Span时返回空串
func ExtractTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// ExtractSpanID 从Context提取SpanID(16位十六进制)
func ExtractSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
