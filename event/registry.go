package event

import (
	"sync"
)

// Registry 扩展点注册表：Family -> 按注册顺序排列的 Handler
type Registry struct {
	mu       sync.RWMutex
	handlers map[Family][]any
}

var defaultRegistry = NewRegistry()

// NewRegistry 创建独立的注册表，主要用于测试或多实例场景
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Family][]any)}
}

// Default 返回进程级注册表
func Default() *Registry {
	return defaultRegistry
}

// Register 将 Handler 注册到 family 扩展点，注册顺序即调用顺序
func Register[S, F any](r *Registry, family Family, h Handler[S, F]) {
	if r == nil || h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[family] = append(r.handlers[family], h)
}

// Len 返回 family 下已注册的 Handler 数量
func (r *Registry) Len(family Family) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[family])
}

// Families 返回所有已注册的扩展点
func (r *Registry) Families() []Family {
	r.mu.RLock()
	defer r.mu.RUnlock()
	families := make([]Family, 0, len(r.handlers))
	for f := range r.handlers {
		families = append(families, f)
	}
	return families
}

func (r *Registry) snapshot(family Family) []any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]any(nil), r.handlers[family]...)
}
