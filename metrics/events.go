package metrics

import (
	"context"
	"time"

	"github.com/ceyewan/shardkit/event"
	"github.com/ceyewan/shardkit/event/closeconn"
	"github.com/ceyewan/shardkit/event/parsing"
	"github.com/ceyewan/shardkit/event/rootinvoke"
	"github.com/ceyewan/shardkit/xerrors"
)

// EventMetrics 分片事件族的计数器与耗时直方图
type EventMetrics struct {
	total    Counter
	duration Histogram
}

// NewEventMetrics 在 m 上创建事件指标
func NewEventMetrics(m Meter) (*EventMetrics, error) {
	if m == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "meter is nil")
	}
	total, err := m.Counter(MetricEventsTotal, "分片事件总数")
	if err != nil {
		return nil, err
	}
	duration, err := m.Histogram(MetricEventDurationSeconds, "分片事件从开始到结束的耗时（秒）",
		WithUnit("s"), WithBuckets(defaultDurationBuckets...))
	if err != nil {
		return nil, err
	}
	return &EventMetrics{total: total, duration: duration}, nil
}

// Install 创建事件指标并把三个事件族的处理器注册到 r
func Install(r *event.Registry, m Meter) error {
	em, err := NewEventMetrics(m)
	if err != nil {
		return err
	}
	event.Register(r, rootinvoke.Family, RootInvokeHandler(em))
	event.Register(r, parsing.Family, ParsingHandler(em))
	event.Register(r, closeconn.Family, CloseConnectionHandler(em))
	return nil
}

// RootInvokeHandler 根调用指标处理器
func RootInvokeHandler(em *EventMetrics) rootinvoke.Handler {
	return rootinvoke.HandlerFuncs{
		StartFunc: func(ctx context.Context, e rootinvoke.StartEvent) (context.Context, error) {
			return em.start(ctx, rootinvoke.Family, e.Meta), nil
		},
		FinishFunc: func(ctx context.Context, e rootinvoke.FinishEvent) error {
			em.finish(ctx, rootinvoke.Family, e.Meta, e.Err)
			return nil
		},
	}
}

// ParsingHandler SQL 解析指标处理器
func ParsingHandler(em *EventMetrics) parsing.Handler {
	return parsing.HandlerFuncs{
		StartFunc: func(ctx context.Context, e parsing.StartEvent) (context.Context, error) {
			return em.start(ctx, parsing.Family, e.Meta), nil
		},
		FinishFunc: func(ctx context.Context, e parsing.FinishEvent) error {
			em.finish(ctx, parsing.Family, e.Meta, e.Err)
			return nil
		},
	}
}

// CloseConnectionHandler 连接关闭指标处理器
func CloseConnectionHandler(em *EventMetrics) closeconn.Handler {
	return closeconn.HandlerFuncs{
		StartFunc: func(ctx context.Context, e closeconn.StartEvent) (context.Context, error) {
			return em.start(ctx, closeconn.Family, e.Meta), nil
		},
		FinishFunc: func(ctx context.Context, e closeconn.FinishEvent) error {
			em.finish(ctx, closeconn.Family, e.Meta, e.Err)
			return nil
		},
	}
}

type startedKey struct {
	family event.Family
}

func (em *EventMetrics) start(ctx context.Context, family event.Family, meta event.Meta) context.Context {
	em.total.Inc(ctx,
		L(LabelFamily, string(family)),
		L(LabelPhase, string(event.PhaseStart)),
		L(LabelOutcome, OutcomeSuccess),
	)
	return context.WithValue(ctx, startedKey{family}, event.Meta{ID: meta.ID, Time: time.Now()})
}

func (em *EventMetrics) finish(ctx context.Context, family event.Family, meta event.Meta, err error) {
	em.total.Inc(ctx,
		L(LabelFamily, string(family)),
		L(LabelPhase, string(event.PhaseFinish)),
		L(LabelOutcome, Outcome(err)),
	)
	started, ok := ctx.Value(startedKey{family}).(event.Meta)
	if !ok || started.ID != meta.ID {
		return
	}
	at := meta.Time
	if at.IsZero() {
		at = time.Now()
	}
	em.duration.Record(ctx, at.Sub(started.Time).Seconds(), L(LabelFamily, string(family)))
}
