package trace

import (
	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/event"
)

// Option Init/Discard 的函数式选项
type Option func(*options)

type options struct {
	registry *event.Registry
	logger   clog.Logger
}

// WithRegistry 将处理器安装到指定注册表，传 nil 表示不安装
func WithRegistry(r *event.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithLogger 设置 Logger
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("trace")
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{registry: event.Default(), logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
