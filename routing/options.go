package routing

import "github.com/ceyewan/shardkit/clog"

// Option Router 的函数式选项
type Option func(*options)

type options struct {
	logger clog.Logger
}

// WithLogger 设置 Logger，自动添加 "routing" 命名空间
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("routing")
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
