// Package sharding 定义分片值模型：某个逻辑表的分片列约束所对应的分片选择值。
//
// Value 是一个带标签的变体：
//   - KindList: 等值或 IN 列表，至少包含一个值
//   - KindRange: BETWEEN 闭区间 [Lower, Upper]
//
// Value 构造后不可变。下游路由逻辑按 Kind() 分支判断，不需要区分 = 与 IN。
// 区间端点的大小关系不做校验，Lower > Upper 得到一个合法但不匹配任何值的空区间。
package sharding

import (
	"fmt"

	"github.com/ceyewan/shardkit/xerrors"
)

// Kind 分片值的变体标签
type Kind uint8

const (
	KindList Kind = iota + 1
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// Range 闭区间，两个端点都包含在内
type Range struct {
	Lower any
	Upper any
}

// Contains 判断 v 是否落在 [Lower, Upper] 内
func (r Range) Contains(v any) (bool, error) {
	lo, err := Compare(r.Lower, v)
	if err != nil {
		return false, err
	}
	if lo > 0 {
		return false, nil
	}
	hi, err := Compare(v, r.Upper)
	if err != nil {
		return false, err
	}
	return hi <= 0, nil
}

// IsEmpty 判断区间是否为空（Lower > Upper）
func (r Range) IsEmpty() (bool, error) {
	c, err := Compare(r.Lower, r.Upper)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r Range) String() string {
	return fmt.Sprintf("[%v..%v]", r.Lower, r.Upper)
}

// Value 分片值
type Value struct {
	kind       Kind
	logicTable string
	column     string
	values     []any
	rng        Range
}

// New 根据操作符构造分片值
//
// Equal 与 In 都得到 KindList，Between 需要恰好两个值并得到 KindRange。
// values 为空、存在 nil 元素、表名或列名为空时返回 ErrInvalidArgument；
// 其他操作符返回携带操作符展示名的 ErrUnsupportedOperation。
func New(logicTable, column string, op Operator, values ...any) (Value, error) {
	if logicTable == "" || column == "" {
		return Value{}, xerrors.InvalidArgument("logic table and sharding column must not be empty")
	}
	if len(values) == 0 {
		return Value{}, xerrors.InvalidArgument("sharding values of %s.%s must not be empty", logicTable, column)
	}
	for i, v := range values {
		if v == nil {
			return Value{}, xerrors.InvalidArgument("sharding value #%d of %s.%s is nil", i, logicTable, column)
		}
	}

	switch op {
	case Equal, In:
		return Value{
			kind:       KindList,
			logicTable: logicTable,
			column:     column,
			values:     append([]any(nil), values...),
		}, nil
	case Between:
		if len(values) != 2 {
			return Value{}, xerrors.InvalidArgument("BETWEEN on %s.%s requires exactly 2 values, got %d", logicTable, column, len(values))
		}
		return Value{
			kind:       KindRange,
			logicTable: logicTable,
			column:     column,
			rng:        Range{Lower: values[0], Upper: values[1]},
		}, nil
	default:
		return Value{}, xerrors.UnsupportedOperation(op.String())
	}
}

// NewList 构造等值/IN 分片值
func NewList(logicTable, column string, values ...any) (Value, error) {
	return New(logicTable, column, In, values...)
}

// NewRange 构造 BETWEEN 分片值
func NewRange(logicTable, column string, lower, upper any) (Value, error) {
	return New(logicTable, column, Between, lower, upper)
}

// Kind 返回变体标签，零值 Value 返回 0
func (v Value) Kind() Kind { return v.kind }

// LogicTable 返回逻辑表名
func (v Value) LogicTable() string { return v.logicTable }

// Column 返回分片列名
func (v Value) Column() string { return v.column }

// IsZero 判断是否为未初始化的零值
func (v Value) IsZero() bool { return v.kind == 0 }

// Values 返回列表值的副本，KindRange 返回 nil
func (v Value) Values() []any {
	if v.kind != KindList {
		return nil
	}
	return append([]any(nil), v.values...)
}

// Range 返回区间，仅 KindRange 时 ok 为 true
func (v Value) Range() (Range, bool) {
	if v.kind != KindRange {
		return Range{}, false
	}
	return v.rng, true
}

// Contains 判断 x 是否满足该分片值表达的约束
func (v Value) Contains(x any) (bool, error) {
	switch v.kind {
	case KindList:
		for _, each := range v.values {
			c, err := Compare(each, x)
			if err != nil {
				return false, err
			}
			if c == 0 {
				return true, nil
			}
		}
		return false, nil
	case KindRange:
		return v.rng.Contains(x)
	default:
		return false, nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindList:
		return fmt.Sprintf("%s.%s IN %v", v.logicTable, v.column, v.values)
	case KindRange:
		return fmt.Sprintf("%s.%s BETWEEN %v AND %v", v.logicTable, v.column, v.rng.Lower, v.rng.Upper)
	default:
		return "<empty>"
	}
}
