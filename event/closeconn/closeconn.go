// Package closeconn 定义连接关闭事件，在关闭一个数据源的物理连接前后触发。
package closeconn

import (
	"sync"

	"github.com/ceyewan/shardkit/event"
)

// Family 扩展点名称
const Family event.Family = "closeConnection"

// StartEvent 开始关闭连接
type StartEvent struct {
	event.Meta
	DataSource   string
	ConnectionID string
}

// FinishEvent 连接关闭结束
type FinishEvent struct {
	event.Meta
	DataSource   string
	ConnectionID string
	Err          error
}

// Handler 连接关闭事件处理器
type Handler = event.Handler[StartEvent, FinishEvent]

// HandlerFuncs 函数式连接关闭事件处理器
type HandlerFuncs = event.HandlerFuncs[StartEvent, FinishEvent]

// NewStartEvent 创建开始事件
func NewStartEvent(dataSource, connectionID string) StartEvent {
	return StartEvent{Meta: event.NewMeta(), DataSource: dataSource, ConnectionID: connectionID}
}

// Finish 创建与本事件配对的结束事件
func (e StartEvent) Finish(err error) FinishEvent {
	return FinishEvent{Meta: e.Meta.Next(), DataSource: e.DataSource, ConnectionID: e.ConnectionID, Err: err}
}

// Register 注册到进程级注册表
func Register(h Handler) {
	event.Register(event.Default(), Family, h)
}

var loader = sync.OnceValue(func() *event.Loader[StartEvent, FinishEvent] {
	return event.NewLoader[StartEvent, FinishEvent](Family)
})

// Loader 返回进程级连接关闭事件分发器
func Loader() *event.Loader[StartEvent, FinishEvent] {
	return loader()
}
