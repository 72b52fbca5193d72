// Package parsing 定义 SQL 解析事件，在路由开始解析一条语句前后触发。
package parsing

import (
	"sync"

	"github.com/ceyewan/shardkit/event"
)

// Family 扩展点名称
const Family event.Family = "parsing"

// StartEvent 开始解析 SQL
type StartEvent struct {
	event.Meta
	SQL string
}

// FinishEvent 解析结束，Err 非 nil 表示解析失败
type FinishEvent struct {
	event.Meta
	SQL string
	Err error
}

// Handler 解析事件处理器
type Handler = event.Handler[StartEvent, FinishEvent]

// HandlerFuncs 函数式解析事件处理器
type HandlerFuncs = event.HandlerFuncs[StartEvent, FinishEvent]

// NewStartEvent 创建开始事件
func NewStartEvent(sql string) StartEvent {
	return StartEvent{Meta: event.NewMeta(), SQL: sql}
}

// Finish 创建与本事件配对的结束事件
func (e StartEvent) Finish(err error) FinishEvent {
	return FinishEvent{Meta: e.Meta.Next(), SQL: e.SQL, Err: err}
}

// Register 注册到进程级注册表
func Register(h Handler) {
	event.Register(event.Default(), Family, h)
}

var loader = sync.OnceValue(func() *event.Loader[StartEvent, FinishEvent] {
	return event.NewLoader[StartEvent, FinishEvent](Family)
})

// Loader 返回进程级解析事件分发器
func Loader() *event.Loader[StartEvent, FinishEvent] {
	return loader()
}
