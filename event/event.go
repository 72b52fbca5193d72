// Package event 提供生命周期事件（开始/结束）的通用分发机制。
//
// 核心流水线通过 Loader 触发事件，可观测性插件实现 Handler 并注册到
// Registry 的某个扩展点（Family）。核心不依赖任何插件：
// 没有注册任何 Handler 时，Start/Finish 都是空操作。
//
// 注册发生在组合根启动阶段；Loader 在首次使用时枚举一次该 Family 的全部 Handler，
// 并在整个进程生命周期内复用该结果，之后的注册对已加载的 Loader 不可见。
package event

import (
	"context"
	"fmt"
	"time"

	"github.com/ceyewan/shardkit/xerrors"
	"github.com/google/uuid"
)

// Family 扩展点名称，例如 "parsing"
type Family string

// Handler 一个事件族的开始/结束处理器
//
// Start 返回的 context 会传给下一个 Handler，最终返回给调用方；
// 调用方应将其传入对应的 Finish，以便 Handler 在两个阶段之间传递状态（如 Span）。
type Handler[S, F any] interface {
	Start(ctx context.Context, event S) (context.Context, error)
	Finish(ctx context.Context, event F) error
}

// HandlerFuncs 用函数实现 Handler，未设置的阶段为空操作
type HandlerFuncs[S, F any] struct {
	StartFunc  func(ctx context.Context, event S) (context.Context, error)
	FinishFunc func(ctx context.Context, event F) error
}

func (h HandlerFuncs[S, F]) Start(ctx context.Context, event S) (context.Context, error) {
	if h.StartFunc == nil {
		return ctx, nil
	}
	return h.StartFunc(ctx, event)
}

func (h HandlerFuncs[S, F]) Finish(ctx context.Context, event F) error {
	if h.FinishFunc == nil {
		return nil
	}
	return h.FinishFunc(ctx, event)
}

// Meta 所有事件共有的元数据，同一次操作的开始与结束事件共享 ID
type Meta struct {
	ID   string
	Time time.Time
}

// NewMeta 生成新的事件 ID
func NewMeta() Meta {
	return Meta{ID: uuid.NewString(), Time: time.Now()}
}

// Next 返回同一 ID、当前时间的元数据，用于构造结束事件
func (m Meta) Next() Meta {
	return Meta{ID: m.ID, Time: time.Now()}
}

// Phase 事件阶段
type Phase string

const (
	PhaseStart  Phase = "start"
	PhaseFinish Phase = "finish"
)

// HandlerError 描述某个 Handler 在某个阶段的失败
//
// errors.Is(err, xerrors.ErrHandler) 以及 errors.Is(err, 原始错误) 都成立。
type HandlerError struct {
	Family Family
	Index  int
	Phase  Phase
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler #%d %s: %v", e.Family, e.Index, e.Phase, e.Err)
}

func (e *HandlerError) Unwrap() []error {
	return []error{xerrors.ErrHandler, e.Err}
}
