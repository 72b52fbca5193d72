package metrics

import (
	"github.com/ceyewan/shardkit/clog"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Option New 的函数式选项
type Option func(*options)

type options struct {
	logger clog.Logger
	reader sdkmetric.Reader
}

// WithLogger 注入日志记录器，自动添加 "metrics" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("metrics")
		}
	}
}

// WithReader 使用指定的 Reader 替代 Prometheus Exporter，例如测试中的 ManualReader
//
// 设置后不会启动 Prometheus HTTP 服务。
func WithReader(r sdkmetric.Reader) Option {
	return func(o *options) {
		o.reader = r
	}
}
