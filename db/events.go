package db

import (
	"github.com/ceyewan/shardkit/event"
	"github.com/ceyewan/shardkit/event/closeconn"
	"github.com/ceyewan/shardkit/event/parsing"
	"github.com/ceyewan/shardkit/event/rootinvoke"
)

// Events DB 组件触发的三个事件族
type Events struct {
	RootInvoke *event.Loader[rootinvoke.StartEvent, rootinvoke.FinishEvent]
	Parsing    *event.Loader[parsing.StartEvent, parsing.FinishEvent]
	CloseConn  *event.Loader[closeconn.StartEvent, closeconn.FinishEvent]
}

// DefaultEvents 使用进程级注册表的分发器
func DefaultEvents() Events {
	return Events{
		RootInvoke: rootinvoke.Loader(),
		Parsing:    parsing.Loader(),
		CloseConn:  closeconn.Loader(),
	}
}

// NewEvents 创建独立的分发器，例如 NewEvents(event.WithRegistry(r))
func NewEvents(opts ...event.Option) Events {
	return Events{
		RootInvoke: event.NewLoader[rootinvoke.StartEvent, rootinvoke.FinishEvent](rootinvoke.Family, opts...),
		Parsing:    event.NewLoader[parsing.StartEvent, parsing.FinishEvent](parsing.Family, opts...),
		CloseConn:  event.NewLoader[closeconn.StartEvent, closeconn.FinishEvent](closeconn.Family, opts...),
	}
}

func (e Events) withDefaults() Events {
	def := DefaultEvents()
	if e.RootInvoke == nil {
		e.RootInvoke = def.RootInvoke
	}
	if e.Parsing == nil {
		e.Parsing = def.Parsing
	}
	if e.CloseConn == nil {
		e.CloseConn = def.CloseConn
	}
	return e
}
