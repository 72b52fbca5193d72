package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/xerrors"
)

// Loader 某个事件族的分发器
//
// 默认行为：按注册顺序调用每个 Handler，第一个失败的 Handler 会中止本次分发，
// 错误（*HandlerError）返回给调用方；Handler 的 panic 不会被捕获。
// 使用 WithIsolation 时，所有 Handler 都会被调用，panic 被转换为错误，
// 多个失败合并后返回。
type Loader[S, F any] struct {
	family   Family
	registry *Registry
	isolate  bool
	logger   clog.Logger

	once     sync.Once
	handlers []Handler[S, F]
	loads    atomic.Int32
}

// NewLoader 创建事件族分发器，Handler 在首次使用时才从注册表枚举
func NewLoader[S, F any](family Family, opts ...Option) *Loader[S, F] {
	o := applyOptions(opts...)
	return &Loader[S, F]{
		family:   family,
		registry: o.registry,
		isolate:  o.isolate,
		logger:   o.logger.With(clog.String("family", string(family))),
	}
}

// Family 返回扩展点名称
func (l *Loader[S, F]) Family() Family {
	return l.family
}

// Handlers 返回已加载的 Handler 列表（首次调用触发加载）
func (l *Loader[S, F]) Handlers() []Handler[S, F] {
	return append([]Handler[S, F](nil), l.load()...)
}

// Start 依次调用所有 Handler 的 Start，返回最终的 context
//
// 出错时返回的 context 仍包含此前成功的 Handler 写入的内容，调用方应以它调用 Finish，
// 未执行 Start 的 Handler 在 Finish 时从 context 中找不到自己的状态。
func (l *Loader[S, F]) Start(ctx context.Context, event S) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	handlers := l.load()
	if len(handlers) == 0 {
		return ctx, nil
	}

	var errs []error
	for i, h := range handlers {
		next, err := l.callStart(h, ctx, event)
		if err != nil {
			herr := &HandlerError{Family: l.family, Index: i, Phase: PhaseStart, Err: err}
			if !l.isolate {
				return ctx, wrapHandlerError(herr)
			}
			l.logger.WarnContext(ctx, "event handler failed", clog.Int("index", i), clog.String("phase", string(PhaseStart)), clog.Error(err))
			errs = append(errs, wrapHandlerError(herr))
			continue
		}
		if next != nil {
			ctx = next
		}
	}
	return ctx, xerrors.Combine(errs...)
}

// Finish 依次调用所有 Handler 的 Finish
func (l *Loader[S, F]) Finish(ctx context.Context, event F) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for i, h := range l.load() {
		if err := l.callFinish(h, ctx, event); err != nil {
			herr := &HandlerError{Family: l.family, Index: i, Phase: PhaseFinish, Err: err}
			if !l.isolate {
				return wrapHandlerError(herr)
			}
			l.logger.WarnContext(ctx, "event handler failed", clog.Int("index", i), clog.String("phase", string(PhaseFinish)), clog.Error(err))
			errs = append(errs, wrapHandlerError(herr))
		}
	}
	return xerrors.Combine(errs...)
}

func (l *Loader[S, F]) load() []Handler[S, F] {
	l.once.Do(func() {
		l.loads.Add(1)
		for _, each := range l.registry.snapshot(l.family) {
			h, ok := each.(Handler[S, F])
			if !ok {
				l.logger.Warn("skip handler registered with mismatched event types", clog.String("type", fmt.Sprintf("%T", each)))
				continue
			}
			l.handlers = append(l.handlers, h)
		}
		l.logger.Debug("event handlers loaded", clog.Int("count", len(l.handlers)))
	})
	return l.handlers
}

func (l *Loader[S, F]) callStart(h Handler[S, F], ctx context.Context, event S) (next context.Context, err error) {
	if l.isolate {
		defer recoverInto(&err)
	}
	return h.Start(ctx, event)
}

func (l *Loader[S, F]) callFinish(h Handler[S, F], ctx context.Context, event F) (err error) {
	if l.isolate {
		defer recoverInto(&err)
	}
	return h.Finish(ctx, event)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}

func wrapHandlerError(e *HandlerError) error {
	return xerrors.WithCode(e, xerrors.CodeHandlerFailed)
}
