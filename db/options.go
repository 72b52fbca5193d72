package db

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/shardkit/clog"
)

// Option 配置 DB 实例的选项
type Option func(*options)

type options struct {
	logger     clog.Logger
	tracer     trace.TracerProvider
	events     Events
	silentMode bool
}

// WithLogger 注入日志记录器
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("db")
		}
	}
}

// WithTracer 注入 otelgorm 使用的 TracerProvider，默认使用全局 Provider
func WithTracer(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = tp
	}
}

// WithEvents 替换事件分发器，未设置的字段使用进程级分发器
func WithEvents(e Events) Option {
	return func(o *options) {
		o.events = e
	}
}

// WithSilentMode 禁用 SQL 日志输出
func WithSilentMode() Option {
	return func(o *options) {
		o.silentMode = true
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	o.events = o.events.withDefaults()
	return o
}
