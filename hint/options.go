package hint

import "github.com/ceyewan/shardkit/clog"

// Option Obtain 的函数式选项
type Option func(*options)

type options struct {
	logger clog.Logger
}

// WithLogger 设置作用域生命周期日志的 Logger
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("hint")
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
