// Package testkit 提供测试用的 Logger、SQLite、Tracer 等依赖。
package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/event"
	"github.com/ceyewan/shardkit/metrics"
)

// Kit 包含通用的测试依赖
type Kit struct {
	Ctx      context.Context
	Logger   clog.Logger
	Meter    metrics.Meter
	Registry *event.Registry
}

// NewKit 返回一个包含默认依赖的测试工具包，Registry 为独立注册表
func NewKit(t *testing.T) *Kit {
	t.Helper()
	return &Kit{
		Ctx:      context.Background(),
		Logger:   NewLogger(),
		Meter:    metrics.Discard(),
		Registry: event.NewRegistry(),
	}
}

// NewLogger 返回开发格式的 Logger，适合本地调试
func NewLogger() clog.Logger {
	logger, err := clog.New(clog.NewDevDefaultConfig(), clog.WithNamespace("test"))
	if err != nil {
		return clog.Discard()
	}
	return logger
}

// NewContext 返回一个带有超时的测试上下文，随测试结束取消
func NewContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// NewID 返回一个唯一的测试 ID (UUID v4 前 8 位)，用于表名、数据库名等
func NewID() string {
	return uuid.New().String()[0:8]
}
