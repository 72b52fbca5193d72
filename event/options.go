package event

import "github.com/ceyewan/shardkit/clog"

// Option Loader 的函数式选项
type Option func(*options)

type options struct {
	registry *Registry
	isolate  bool
	logger   clog.Logger
}

// WithRegistry 从指定注册表加载 Handler，默认为 Default()
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithIsolation 隔离 Handler 失败：单个 Handler 出错或 panic 不影响其他 Handler
func WithIsolation() Option {
	return func(o *options) {
		o.isolate = true
	}
}

// WithLogger 设置 Logger
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("event")
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{registry: Default(), logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
