// Package clog 为 shardkit 提供基于 slog 的结构化日志组件。
// 支持命名空间、Context 字段提取以及 OpenTelemetry TraceID 关联。
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{Level: "info", Format: "json"},
//	    clog.WithNamespace("shardkit", "hint"),
//	    clog.WithTraceContext(),
//	)
//	logger.InfoContext(ctx, "hint obtained", clog.String("table", "t_order"))
//
// 库内组件默认使用 Discard()，由组合根通过 WithLogger 注入真实 Logger。
package clog

import "fmt"

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用 NewDefaultConfig()。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = NewDefaultConfig()
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return newLogger(config, applyOptions(opts...))
}
