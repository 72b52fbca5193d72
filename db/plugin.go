package db

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/event/parsing"
	"github.com/ceyewan/shardkit/routing"
	"github.com/ceyewan/shardkit/sharding"
	"github.com/ceyewan/shardkit/xerrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const routerPluginName = "shardkit:router"

// routerPlugin 把 routing 规则中的逻辑表改写为唯一命中的物理表
//
// 分片值优先取自 ctx 上的 Hint，其次是 WHERE 中的等值/IN/BETWEEN 条件，
// 插入时取自模型字段。路由到多个物理表或其他数据源时语句失败。
type routerPlugin struct {
	router     *routing.Router
	dataSource string
	events     Events
	logger     clog.Logger
}

func (p *routerPlugin) Name() string {
	return routerPluginName
}

func (p *routerPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register(routerPluginName, p.callback("create")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register(routerPluginName, p.callback("query")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register(routerPluginName, p.callback("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register(routerPluginName, p.callback("delete")); err != nil {
		return err
	}
	return cb.Row().Before("gorm:row").Register(routerPluginName, p.callback("row"))
}

func (p *routerPlugin) callback(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Error != nil || db.Statement == nil {
			return
		}
		table := db.Statement.Table
		rule, ok := p.router.Rule(table)
		if !ok {
			return
		}
		if err := p.route(db, op, rule); err != nil {
			_ = db.AddError(err)
		}
	}
}

func (p *routerPlugin) route(db *gorm.DB, op string, rule routing.Rule) error {
	ctx := db.Statement.Context
	table := rule.LogicTable

	start := parsing.NewStartEvent(strings.ToUpper(op) + " " + table)
	pctx, err := p.events.Parsing.Start(ctx, start)
	if err != nil {
		return xerrors.Combine(err, p.events.Parsing.Finish(pctx, start.Finish(err)))
	}
	var conditions []sharding.Value
	if op == "create" {
		conditions, err = modelConditions(db, rule)
	} else {
		conditions, err = whereConditions(db.Statement, rule)
	}
	if ferr := p.events.Parsing.Finish(pctx, start.Finish(err)); ferr != nil {
		return xerrors.Combine(err, ferr)
	}
	if err != nil {
		return err
	}

	res, err := p.router.Route(ctx, table, conditions...)
	if err != nil {
		return err
	}
	unit, ok := res.Single()
	if !ok {
		return xerrors.Wrapf(xerrors.ErrNoRoute, "table %s routes to %d data sources and %d tables, fan-out is not supported",
			table, len(res.DataSources), len(res.Tables))
	}
	if p.dataSource != "" && unit.DataSource != p.dataSource {
		return xerrors.Wrapf(xerrors.ErrNoRoute, "table %s routes to data source %s, this connection serves %s",
			table, unit.DataSource, p.dataSource)
	}

	db.Statement.Table = unit.Table
	if db.Statement.TableExpr != nil {
		db.Statement.TableExpr = &clause.Expr{SQL: db.Statement.Quote(unit.Table)}
	}
	p.logger.DebugContext(ctx, "statement routed",
		clog.String("op", op),
		clog.String("logic_table", table),
		clog.String("table", unit.Table),
		clog.String("source", string(res.Source)),
		clog.Bool("master_only", res.MasterOnly),
	)
	return nil
}

// modelConditions 从待插入的模型中读取分片列
func modelConditions(db *gorm.DB, rule routing.Rule) ([]sharding.Value, error) {
	stmt := db.Statement
	if stmt.Schema == nil || !stmt.ReflectValue.IsValid() {
		return nil, nil
	}
	var out []sharding.Value
	for _, column := range []string{rule.DatabaseColumn, rule.TableColumn} {
		if column == "" {
			continue
		}
		field := stmt.Schema.LookUpField(column)
		if field == nil {
			continue
		}
		var values []any
		rv := reflect.Indirect(stmt.ReflectValue)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				if v, zero := field.ValueOf(stmt.Context, reflect.Indirect(rv.Index(i))); !zero {
					values = append(values, v)
				}
			}
		case reflect.Struct:
			if v, zero := field.ValueOf(stmt.Context, rv); !zero {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		v, err := sharding.NewList(rule.LogicTable, column, values...)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

var (
	exprEq      = regexp.MustCompile(`(?i)^\s*([\w.` + "`" + `"]+)\s*=\s*\?\s*$`)
	exprIn      = regexp.MustCompile(`(?i)^\s*([\w.` + "`" + `"]+)\s+IN\s*\(?\s*\?\s*\)?\s*$`)
	exprBetween = regexp.MustCompile(`(?i)^\s*([\w.` + "`" + `"]+)\s+BETWEEN\s+\?\s+AND\s+\?\s*$`)
)

// whereConditions 从 WHERE 子句提取与分片列相关的条件
//
// 出现 OR 或 NOT 分支时其余条件不再构成交集，返回空条件按全路由处理。
func whereConditions(stmt *gorm.Statement, rule routing.Rule) ([]sharding.Value, error) {
	cls, ok := stmt.Clauses["WHERE"]
	if !ok {
		return nil, nil
	}
	where, ok := cls.Expression.(clause.Where)
	if !ok {
		return nil, nil
	}
	wanted := func(column string) bool {
		return column != "" && (column == rule.DatabaseColumn || column == rule.TableColumn)
	}

	if hasDisjunction(where.Exprs) {
		return nil, nil
	}

	var out []sharding.Value
	var walk func(exprs []clause.Expression) error
	walk = func(exprs []clause.Expression) error {
		for _, expr := range exprs {
			var (
				column string
				op     sharding.Operator
				values []any
			)
			switch e := expr.(type) {
			case clause.Eq:
				column, op, values = columnName(e.Column), sharding.Equal, flatten(e.Value)
				if len(values) > 1 {
					op = sharding.In
				}
			case clause.IN:
				column, op, values = columnName(e.Column), sharding.In, flatten(e.Values...)
			case clause.Expr:
				column, op, values = parseExpr(e)
			case clause.AndConditions:
				if err := walk(e.Exprs); err != nil {
					return err
				}
				continue
			default:
				continue
			}
			if !wanted(column) || len(values) == 0 {
				continue
			}
			v, err := sharding.New(rule.LogicTable, column, op, values...)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	}
	if err := walk(where.Exprs); err != nil {
		return nil, err
	}
	return out, nil
}

// hasDisjunction 报告顶层或嵌套 AND 中是否存在 OR/NOT 条件
func hasDisjunction(exprs []clause.Expression) bool {
	for _, expr := range exprs {
		switch e := expr.(type) {
		case clause.OrConditions, clause.NotConditions:
			return true
		case clause.AndConditions:
			if hasDisjunction(e.Exprs) {
				return true
			}
		}
	}
	return false
}

func parseExpr(e clause.Expr) (string, sharding.Operator, []any) {
	switch {
	case len(e.Vars) == 1 && exprEq.MatchString(e.SQL):
		return columnName(exprEq.FindStringSubmatch(e.SQL)[1]), sharding.Equal, flatten(e.Vars[0])
	case len(e.Vars) == 1 && exprIn.MatchString(e.SQL):
		return columnName(exprIn.FindStringSubmatch(e.SQL)[1]), sharding.In, flatten(e.Vars[0])
	case len(e.Vars) == 2 && exprBetween.MatchString(e.SQL):
		return columnName(exprBetween.FindStringSubmatch(e.SQL)[1]), sharding.Between, e.Vars
	}
	return "", 0, nil
}

// columnName 去掉表前缀和引号
func columnName(c any) string {
	var name string
	switch col := c.(type) {
	case clause.Column:
		name = col.Name
	case string:
		name = col
	default:
		return ""
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.Trim(name, "`\"")
}

// flatten 展开切片参数，[]byte 视为标量
func flatten(values ...any) []any {
	var out []any
	for _, v := range values {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				out = append(out, rv.Index(i).Interface())
			}
			continue
		}
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}
