package trace

import (
	"context"
	"sync"

	"github.com/ceyewan/shardkit/event"
	"github.com/ceyewan/shardkit/event/closeconn"
	"github.com/ceyewan/shardkit/event/parsing"
	"github.com/ceyewan/shardkit/event/rootinvoke"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Install 把三个事件族的追踪处理器注册到 r
func Install(r *event.Registry, tracer oteltrace.Tracer) {
	event.Register(r, rootinvoke.Family, RootInvokeHandler(tracer))
	event.Register(r, parsing.Family, ParsingHandler(tracer))
	event.Register(r, closeconn.Family, CloseConnectionHandler(tracer))
}

// RootInvokeHandler 在根调用开始时开启根 Span 并把当前流程标记为主干（trunk）
func RootInvokeHandler(tracer oteltrace.Tracer) rootinvoke.Handler {
	return rootinvoke.HandlerFuncs{
		StartFunc: func(ctx context.Context, e rootinvoke.StartEvent) (context.Context, error) {
			ctx, span := startSpan(ctx, tracer, SpanNameRootInvoke, attribute.String(AttrOperation, e.Operation))
			return context.WithValue(ctx, rootKey{}, &rootState{id: e.ID, span: span}), nil
		},
		FinishFunc: func(ctx context.Context, e rootinvoke.FinishEvent) error {
			// 本处理器的 Start 未执行时 ctx 里可能是外层根调用的状态
			state, ok := ctx.Value(rootKey{}).(*rootState)
			if !ok || state.id != e.ID {
				return nil
			}
			if span := state.release(); span != nil {
				MarkSpanError(span, e.Err)
				span.End()
			}
			return nil
		},
	}
}

// ParsingHandler 为 SQL 解析创建 Span
func ParsingHandler(tracer oteltrace.Tracer) parsing.Handler {
	return parsing.HandlerFuncs{
		StartFunc: func(ctx context.Context, e parsing.StartEvent) (context.Context, error) {
			ctx, span := startSpan(ctx, tracer, SpanNameParseSQL, attribute.String(AttrDBStatement, e.SQL))
			return context.WithValue(ctx, spanKey{parsing.Family}, startedSpan{id: e.ID, span: span}), nil
		},
		FinishFunc: func(ctx context.Context, e parsing.FinishEvent) error {
			finishSpan(ctx, parsing.Family, e.ID, e.Err)
			return nil
		},
	}
}

// CloseConnectionHandler 为关闭物理连接创建 Span
func CloseConnectionHandler(tracer oteltrace.Tracer) closeconn.Handler {
	return closeconn.HandlerFuncs{
		StartFunc: func(ctx context.Context, e closeconn.StartEvent) (context.Context, error) {
			ctx, span := startSpan(ctx, tracer, SpanNameCloseConnection,
				attribute.String(AttrDBInstance, e.DataSource),
				attribute.String(AttrConnectionID, e.ConnectionID),
			)
			return context.WithValue(ctx, spanKey{closeconn.Family}, startedSpan{id: e.ID, span: span}), nil
		},
		FinishFunc: func(ctx context.Context, e closeconn.FinishEvent) error {
			finishSpan(ctx, closeconn.Family, e.ID, e.Err)
			return nil
		},
	}
}

// IsTrunk 报告 ctx 是否处于一次尚未结束的根调用之内
func IsTrunk(ctx context.Context) bool {
	_, ok := RootSpan(ctx)
	return ok
}

// RootSpan 返回 ctx 所在根调用的 Span，根调用结束后返回 false
//
// 分支 goroutine 可以用它把自己的 Span 挂到根 Span 下。
func RootSpan(ctx context.Context) (oteltrace.Span, bool) {
	if ctx == nil {
		return nil, false
	}
	state, ok := ctx.Value(rootKey{}).(*rootState)
	if !ok {
		return nil, false
	}
	span := state.current()
	return span, span != nil
}

// MarkSpanError 记录错误并将 Span 状态设为 Error，err 为 nil 时不做任何事
func MarkSpanError(span oteltrace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

type rootKey struct{}

type spanKey struct {
	family event.Family
}

// rootState 根调用的可变状态，结束时清空，所有持有该 ctx 的 goroutine 随即看到非主干
type rootState struct {
	id   string
	mu   sync.Mutex
	span oteltrace.Span
}

// startedSpan 事件 Start 时开启的 Span，id 为事件 ID
type startedSpan struct {
	id   string
	span oteltrace.Span
}

func (s *rootState) current() oteltrace.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.span
}

func (s *rootState) release() oteltrace.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	span := s.span
	s.span = nil
	return span
}

func startSpan(ctx context.Context, tracer oteltrace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	base := []attribute.KeyValue{
		attribute.String(AttrComponent, ComponentName),
		attribute.String(AttrSpanKind, SpanKindClient),
	}
	return tracer.Start(ctx, name,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(append(base, attrs...)...),
	)
}

func finishSpan(ctx context.Context, family event.Family, id string, err error) {
	started, ok := ctx.Value(spanKey{family}).(startedSpan)
	if !ok || started.id != id {
		return
	}
	MarkSpanError(started.span, err)
	started.span.End()
}
