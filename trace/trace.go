// Package trace 初始化 OpenTelemetry TracerProvider，并为分片流水线的事件族提供追踪处理器。
//
// 处理器产生的 Span 名称和属性见 contract.go：
//
//	shutdown, err := trace.Init(trace.DefaultConfig("order-svc"))
//	if err != nil { ... }
//	defer shutdown(context.Background())
//
// Init 会把 rootInvoke/parsing/closeConnection 三个事件族的处理器注册到事件注册表，
// 注册需要发生在流水线第一次触发事件之前。
package trace

import (
	"context"
	"time"

	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/xerrors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
)

// ShutdownFunc 刷新并关闭 TracerProvider
type ShutdownFunc func(context.Context) error

// Init 创建导出到 OTLP gRPC Endpoint（Tempo/Jaeger 等）的 TracerProvider，
// 设置为全局 Provider 和 Propagator，并安装分片事件处理器。
//
// 调用者应在退出时调用返回的 ShutdownFunc 以刷新剩余数据。
func Init(cfg *Config, opts ...Option) (ShutdownFunc, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	o := applyOptions(opts...)
	ctx := context.Background()

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithTimeout(5 * time.Second),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to create otlp exporter")
	}

	var processor sdktrace.TracerProviderOption
	if cfg.Batcher == "simple" {
		processor = sdktrace.WithSyncer(exporter)
	} else {
		processor = sdktrace.WithBatcher(exporter)
	}

	tp, err := newProvider(ctx, cfg.ServiceName, cfg.Sampler, processor)
	if err != nil {
		return nil, err
	}
	install(tp, o)
	o.logger.Info("tracer provider initialized",
		clog.String("service_name", cfg.ServiceName),
		clog.String("endpoint", cfg.Endpoint),
		clog.Float64("sampler", cfg.Sampler),
	)
	return tp.Shutdown, nil
}

// newProvider 构造 TracerProvider，serviceName 为空时使用 SDK 默认资源
func newProvider(ctx context.Context, serviceName string, ratio float64, extra ...sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	var resOpts []resource.Option
	if serviceName != "" {
		resOpts = append(resOpts, resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	}
	res, err := resource.New(ctx, resOpts...)
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to create resource")
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}
	return sdktrace.NewTracerProvider(append(tpOpts, extra...)...), nil
}

// install 设置全局 Provider/Propagator 并注册事件处理器
func install(tp *sdktrace.TracerProvider, o *options) {
	otel.SetTracerProvider(tp)
	// TraceContext: W3C traceparent；Baggage: 链路透传的 KV
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if o.registry != nil {
		Install(o.registry, tp.Tracer(TracerName))
	}
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "config is required")
	}
	if cfg.ServiceName == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "service_name is required")
	}
	if cfg.Endpoint == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "endpoint is required")
	}
	if cfg.Sampler < 0 || cfg.Sampler > 1 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "sampler must be between 0 and 1, got %v", cfg.Sampler)
	}
	if cfg.Batcher != "" && cfg.Batcher != "batch" && cfg.Batcher != "simple" {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "batcher must be \"batch\" or \"simple\", got %q", cfg.Batcher)
	}
	return nil
}
