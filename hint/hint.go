// Package hint 允许调用方绕过 SQL 条件解析，直接声明当前逻辑操作的分片路由值。
//
// 路由上下文绑定在 context.Context 上，而不是全局或线程级状态：
// 每个逻辑操作通过 Obtain 获得自己的 Manager，并发操作之间互不可见；
// Close 释放绑定，之后同一 context 链上的查询看不到任何 Hint。
//
//	ctx, m := hint.Obtain(ctx)
//	defer m.Close()
//	if err := m.AddTableShardingValue("t_order", "order_id", 10); err != nil {
//	    return err
//	}
//	rows, err := database.DB(ctx).Find(&orders).Error
//
// 或使用 Use 保证在所有退出路径上释放：
//
//	err := hint.Use(ctx, func(ctx context.Context, m *hint.Manager) error {
//	    m.SetMasterRouteOnly()
//	    return doQuery(ctx)
//	})
package hint

import (
	"context"
	"sync"

	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/sharding"
	"github.com/ceyewan/shardkit/xerrors"
)

// 仅分库路由时所有逻辑表共用的哨兵表名与列名
const (
	DatabaseOnlyTable  = "DB_TABLE_NAME"
	DatabaseOnlyColumn = "DB_COLUMN_NAME"
)

type ctxKey struct{}

// Manager 持有一次逻辑操作的路由上下文：
// 每个逻辑表至多一个分库值和一个分表值，以及强制主库、仅分库两个标志。
//
// Manager 可被同一逻辑操作派生的多个 goroutine 并发访问。
type Manager struct {
	mu                   sync.RWMutex
	databaseValues       map[string]sharding.Value
	tableValues          map[string]sharding.Value
	masterRouteOnly      bool
	databaseShardingOnly bool
	closed               bool
	logger               clog.Logger
}

// Obtain 创建一个空的路由上下文并绑定到返回的 context 上
//
// 如果 ctx 上已经绑定了一个未关闭的 Manager，旧的 Manager 会被替换并随之失效：
// 同一条执行链上始终只有一个生效的 Hint 作用域。
func Obtain(ctx context.Context, opts ...Option) (context.Context, *Manager) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := applyOptions(opts...)

	if prev, ok := ctx.Value(ctxKey{}).(*Manager); ok && prev.release() {
		o.logger.DebugContext(ctx, "hint scope superseded")
	}

	m := &Manager{
		databaseValues: make(map[string]sharding.Value),
		tableValues:    make(map[string]sharding.Value),
		logger:         o.logger,
	}
	o.logger.DebugContext(ctx, "hint scope obtained")
	return context.WithValue(ctx, ctxKey{}, m), m
}

// FromContext 返回 ctx 上绑定且仍然有效的 Manager
func FromContext(ctx context.Context) (*Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	m, ok := ctx.Value(ctxKey{}).(*Manager)
	if !ok || m.IsClosed() {
		return nil, false
	}
	return m, true
}

// Use 在一个新的 Hint 作用域中执行 fn，无论 fn 正常返回、出错还是 panic 都会释放作用域
func Use(ctx context.Context, fn func(ctx context.Context, m *Manager) error, opts ...Option) error {
	ctx, m := Obtain(ctx, opts...)
	defer m.Close()
	return fn(ctx, m)
}

// SetDatabaseShardingValue 设置仅分库路由的分片值（操作符 =）
//
// 该值记录在哨兵表 DatabaseOnlyTable 下，对所有逻辑表生效，
// 同时打开 DatabaseShardingOnly 标志。
func (m *Manager) SetDatabaseShardingValue(value any) error {
	v, err := sharding.New(DatabaseOnlyTable, DatabaseOnlyColumn, sharding.Equal, value)
	if err != nil {
		return err
	}
	return m.put(func() {
		m.databaseShardingOnly = true
		m.databaseValues[DatabaseOnlyTable] = v
	}, v, "database")
}

// AddDatabaseShardingValue 添加分库分片值（操作符 =），覆盖该表已有的分库值
func (m *Manager) AddDatabaseShardingValue(logicTable, shardingColumn string, value any) error {
	return m.addDatabase(logicTable, shardingColumn, sharding.Equal, value)
}

// AddDatabaseShardingValues 添加分库分片值（操作符 IN）
func (m *Manager) AddDatabaseShardingValues(logicTable, shardingColumn string, values ...any) error {
	return m.addDatabase(logicTable, shardingColumn, sharding.In, values...)
}

// AddDatabaseShardingRange 添加分库分片值（操作符 BETWEEN，闭区间）
func (m *Manager) AddDatabaseShardingRange(logicTable, shardingColumn string, lower, upper any) error {
	return m.addDatabase(logicTable, shardingColumn, sharding.Between, lower, upper)
}

// AddTableShardingValue 添加分表分片值（操作符 =），覆盖该表已有的分表值
func (m *Manager) AddTableShardingValue(logicTable, shardingColumn string, value any) error {
	return m.addTable(logicTable, shardingColumn, sharding.Equal, value)
}

// AddTableShardingValues 添加分表分片值（操作符 IN）
func (m *Manager) AddTableShardingValues(logicTable, shardingColumn string, values ...any) error {
	return m.addTable(logicTable, shardingColumn, sharding.In, values...)
}

// AddTableShardingRange 添加分表分片值（操作符 BETWEEN，闭区间）
func (m *Manager) AddTableShardingRange(logicTable, shardingColumn string, lower, upper any) error {
	return m.addTable(logicTable, shardingColumn, sharding.Between, lower, upper)
}

// DatabaseShardingValue 返回逻辑表的分库分片值，未设置时 ok 为 false
func (m *Manager) DatabaseShardingValue(logicTable string) (sharding.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.databaseValues[logicTable]
	return v, ok
}

// TableShardingValue 返回逻辑表的分表分片值，未设置时 ok 为 false
func (m *Manager) TableShardingValue(logicTable string) (sharding.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.tableValues[logicTable]
	return v, ok
}

// SetMasterRouteOnly 强制当前操作只路由到主库，不论是否存在分片值
func (m *Manager) SetMasterRouteOnly() error {
	return m.put(func() { m.masterRouteOnly = true }, sharding.Value{}, "master_only")
}

// MasterRouteOnly 是否强制主库路由
func (m *Manager) MasterRouteOnly() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.masterRouteOnly
}

// DatabaseShardingOnly 是否仅分库路由
func (m *Manager) DatabaseShardingOnly() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.databaseShardingOnly
}

// IsClosed 作用域是否已释放（包括被新的 Obtain 替换）
func (m *Manager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Close 清空路由上下文并解除绑定，重复调用是安全的
func (m *Manager) Close() error {
	if m.release() {
		m.logger.Debug("hint scope closed")
	}
	return nil
}

// release 清空状态，返回本次调用是否真正完成了释放
func (m *Manager) release() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.closed = true
	m.masterRouteOnly = false
	m.databaseShardingOnly = false
	clear(m.databaseValues)
	clear(m.tableValues)
	return true
}

func (m *Manager) addDatabase(logicTable, shardingColumn string, op sharding.Operator, values ...any) error {
	v, err := sharding.New(logicTable, shardingColumn, op, values...)
	if err != nil {
		return err
	}
	return m.put(func() { m.databaseValues[logicTable] = v }, v, "database")
}

func (m *Manager) addTable(logicTable, shardingColumn string, op sharding.Operator, values ...any) error {
	v, err := sharding.New(logicTable, shardingColumn, op, values...)
	if err != nil {
		return err
	}
	return m.put(func() { m.tableValues[logicTable] = v }, v, "table")
}

// put 在写锁内执行变更；作用域已关闭时不做任何修改
func (m *Manager) put(apply func(), v sharding.Value, target string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return xerrors.Wrap(xerrors.ErrClosed, "hint manager")
	}
	apply()
	m.mu.Unlock()

	if !v.IsZero() {
		m.logger.Debug("hint value recorded",
			clog.String("target", target),
			clog.String("table", v.LogicTable()),
			clog.String("value", v.String()),
		)
	}
	return nil
}
