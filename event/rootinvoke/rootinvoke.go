// Package rootinvoke 定义根调用事件，包裹一次完整的逻辑操作（一次查询或一个事务）。
//
// 可观测插件通常在 StartEvent 上开启根 Span，其余事件的 Span 都挂在它之下。
package rootinvoke

import (
	"sync"

	"github.com/ceyewan/shardkit/event"
)

// Family 扩展点名称
const Family event.Family = "rootInvoke"

// StartEvent 根调用开始
type StartEvent struct {
	event.Meta
	Operation string
}

// FinishEvent 根调用结束
type FinishEvent struct {
	event.Meta
	Operation string
	Err       error
}

// Handler 根调用事件处理器
type Handler = event.Handler[StartEvent, FinishEvent]

// HandlerFuncs 函数式根调用事件处理器
type HandlerFuncs = event.HandlerFuncs[StartEvent, FinishEvent]

// NewStartEvent 创建开始事件
func NewStartEvent(operation string) StartEvent {
	return StartEvent{Meta: event.NewMeta(), Operation: operation}
}

// Finish 创建与本事件配对的结束事件
func (e StartEvent) Finish(err error) FinishEvent {
	return FinishEvent{Meta: e.Meta.Next(), Operation: e.Operation, Err: err}
}

// Register 注册到进程级注册表
func Register(h Handler) {
	event.Register(event.Default(), Family, h)
}

var loader = sync.OnceValue(func() *event.Loader[StartEvent, FinishEvent] {
	return event.NewLoader[StartEvent, FinishEvent](Family)
})

// Loader 返回进程级根调用事件分发器
func Loader() *event.Loader[StartEvent, FinishEvent] {
	return loader()
}
