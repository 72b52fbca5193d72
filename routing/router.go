// Package routing 根据 Hint 或查询条件计算一条语句的目标数据源与物理表。
//
// 路由优先查询 ctx 上绑定的 hint.Manager：存在 Hint 分片值时忽略 SQL 条件，
// 否则使用与分片列匹配的 Equal/In/Between 条件；两者都没有时全路由。
package routing

import (
	"context"
	"sort"

	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/hint"
	"github.com/ceyewan/shardkit/sharding"
	"github.com/ceyewan/shardkit/xerrors"
)

// Source 路由依据
type Source string

const (
	SourceHint      Source = "hint"
	SourcePredicate Source = "predicate"
	SourceBroadcast Source = "broadcast"
)

// Result 路由结果，目标为 DataSources × Tables
type Result struct {
	LogicTable   string
	DataSources  []string
	Tables       []string
	MasterOnly   bool
	DatabaseOnly bool
	Source       Source
}

// Unit 一个具体的执行目标
type Unit struct {
	DataSource string
	Table      string
}

// Units 展开为执行单元
func (r Result) Units() []Unit {
	units := make([]Unit, 0, len(r.DataSources)*len(r.Tables))
	for _, ds := range r.DataSources {
		for _, t := range r.Tables {
			units = append(units, Unit{DataSource: ds, Table: t})
		}
	}
	return units
}

// Single 当结果只有一个执行单元时返回它
func (r Result) Single() (Unit, bool) {
	if len(r.DataSources) != 1 || len(r.Tables) != 1 {
		return Unit{}, false
	}
	return Unit{DataSource: r.DataSources[0], Table: r.Tables[0]}, true
}

// Router 分片路由器，创建后只读，可并发使用
type Router struct {
	rules  map[string]Rule
	logger clog.Logger
}

// New 校验规则并创建路由器
func New(cfg *Config, opts ...Option) (*Router, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "config is required")
	}
	o := applyOptions(opts...)

	rules := make(map[string]Rule, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		rule.DataSources = append([]string(nil), rule.DataSources...)
		rule.setDefaults()
		if err := rule.validate(); err != nil {
			return nil, err
		}
		if _, dup := rules[rule.LogicTable]; dup {
			return nil, xerrors.Wrapf(xerrors.ErrInvalidInput, "duplicate rule for %s", rule.LogicTable)
		}
		rules[rule.LogicTable] = rule
	}
	return &Router{rules: rules, logger: o.logger}, nil
}

// Rule 返回逻辑表的规则
func (r *Router) Rule(logicTable string) (Rule, bool) {
	rule, ok := r.rules[logicTable]
	return rule, ok
}

// LogicTables 返回所有配置了规则的逻辑表（升序）
func (r *Router) LogicTables() []string {
	tables := make([]string, 0, len(r.rules))
	for t := range r.rules {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// Route 计算逻辑表 logicTable 的路由
//
// conditions 为从 SQL 中提取出的分片条件，列名不匹配的条件会被忽略。
// 没有规则的表返回 ErrNoRoute；分片值无法命中任何分片时同样返回 ErrNoRoute。
func (r *Router) Route(ctx context.Context, logicTable string, conditions ...sharding.Value) (Result, error) {
	rule, ok := r.rules[logicTable]
	if !ok {
		return Result{}, xerrors.Wrapf(xerrors.ErrNoRoute, "no rule for table %s", logicTable)
	}

	res := Result{LogicTable: logicTable, Source: SourceBroadcast}
	m, bound := hint.FromContext(ctx)
	if bound {
		res.MasterOnly = m.MasterRouteOnly()
	}

	dbValue, tableValue := r.pick(rule, m, bound, conditions, &res)

	dsIdx, err := r.resolve(rule.Algorithm, dbValue, len(rule.DataSources))
	if err != nil {
		return Result{}, err
	}
	for _, i := range dsIdx {
		res.DataSources = append(res.DataSources, rule.DataSources[i])
	}

	if res.DatabaseOnly {
		res.Tables = rule.PhysicalTables()
	} else {
		tIdx, err := r.resolve(rule.Algorithm, tableValue, rule.NumberOfTables)
		if err != nil {
			return Result{}, err
		}
		for _, i := range tIdx {
			res.Tables = append(res.Tables, rule.physicalTable(i))
		}
	}

	if len(res.DataSources) == 0 || len(res.Tables) == 0 {
		return Result{}, xerrors.Wrapf(xerrors.ErrNoRoute, "table %s: sharding value matches no shard", logicTable)
	}
	r.logger.DebugContext(ctx, "route computed",
		clog.String("logic_table", logicTable),
		clog.String("source", string(res.Source)),
		clog.Strings("data_sources", res.DataSources),
		clog.Strings("tables", res.Tables),
	)
	return res, nil
}

// pick 选出库、表两个维度的分片值，优先级：Hint > SQL 条件
func (r *Router) pick(rule Rule, m *hint.Manager, bound bool, conditions []sharding.Value, res *Result) (db, table sharding.Value) {
	if bound && m.DatabaseShardingOnly() {
		res.DatabaseOnly = true
		res.Source = SourceHint
		db, _ = m.DatabaseShardingValue(hint.DatabaseOnlyTable)
		return db, sharding.Value{}
	}

	if bound {
		if v, ok := m.DatabaseShardingValue(rule.LogicTable); ok {
			db = v
			res.Source = SourceHint
		}
		if v, ok := m.TableShardingValue(rule.LogicTable); ok {
			table = v
			res.Source = SourceHint
		}
		if res.Source == SourceHint {
			return db, table
		}
	}

	for _, c := range conditions {
		if c.IsZero() || c.LogicTable() != rule.LogicTable {
			continue
		}
		if db.IsZero() && rule.DatabaseColumn != "" && c.Column() == rule.DatabaseColumn {
			db = c
			res.Source = SourcePredicate
		}
		if table.IsZero() && rule.TableColumn != "" && c.Column() == rule.TableColumn {
			table = c
			res.Source = SourcePredicate
		}
	}
	return db, table
}

// resolve 把分片值换算为分片序号，零值表示全路由
func (r *Router) resolve(alg Algorithm, v sharding.Value, n int) ([]int, error) {
	if !v.IsZero() {
		idx, ok, err := shardIndexes(alg, v, n)
		if err != nil {
			return nil, err
		}
		if ok {
			return idx, nil
		}
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	return all, nil
}
