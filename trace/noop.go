package trace

import (
	"context"
)

// Discard 创建不导出的 TracerProvider，只生成 TraceID 并安装事件处理器。
//
// 适用于本地开发：日志里仍能关联 trace_id，但不依赖 Collector。
func Discard(serviceName string, opts ...Option) (ShutdownFunc, error) {
	tp, err := newProvider(context.Background(), serviceName, 1.0)
	if err != nil {
		return nil, err
	}
	install(tp, applyOptions(opts...))
	return tp.Shutdown, nil
}
