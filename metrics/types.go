// Package metrics 基于 OpenTelemetry 提供 Counter、Histogram 等指标接口，
// 并通过 Prometheus Exporter 暴露，同时为分片事件族提供计数与耗时处理器。
//
// 快速开始：
//
//	meter, err := metrics.New(metrics.NewDevDefaultConfig("order-service"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer meter.Shutdown(ctx)
//
//	// 安装分片事件处理器
//	if err := metrics.Install(event.Default(), meter); err != nil {
//	    log.Fatal(err)
//	}
package metrics

import "context"

// Counter 只增不减的累计值
type Counter interface {
	// Inc 增加 1
	Inc(ctx context.Context, labels ...Label)
	// Add 增加 val，负数会被大多数后端忽略
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 可以任意增减的瞬时值
type Gauge interface {
	Set(ctx context.Context, val float64, labels ...Label)
	Inc(ctx context.Context, labels ...Label)
	Dec(ctx context.Context, labels ...Label)
}

// Histogram 记录值的分布，例如耗时
type Histogram interface {
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标工厂
type Meter interface {
	Counter(name string, desc string, opts ...MetricOption) (Counter, error)
	Gauge(name string, desc string, opts ...MetricOption) (Gauge, error)
	Histogram(name string, desc string, opts ...MetricOption) (Histogram, error)

	// Shutdown 刷新并关闭，随后停止 HTTP 服务
	Shutdown(ctx context.Context) error
}

// MetricOption 单个指标的选项
type MetricOption func(*MetricOptions)

// MetricOptions 单个指标的配置
type MetricOptions struct {
	Unit    string
	Buckets []float64
}

// WithUnit 设置单位，例如 "s"、"By"
func WithUnit(unit string) MetricOption {
	return func(o *MetricOptions) {
		o.Unit = unit
	}
}

// WithBuckets 设置直方图桶边界
func WithBuckets(buckets ...float64) MetricOption {
	return func(o *MetricOptions) {
		o.Buckets = buckets
	}
}
