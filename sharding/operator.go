package sharding

import (
	"fmt"
	"strings"

	"github.com/ceyewan/shardkit/xerrors"
)

// Operator 分片条件操作符，决定可以构造出哪一种分片值
type Operator int

const (
	Equal Operator = iota + 1
	In
	Between
)

// String 返回操作符的展示名
func (o Operator) String() string {
	switch o {
	case Equal:
		return "="
	case In:
		return "IN"
	case Between:
		return "BETWEEN"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// ParseOperator 解析操作符的展示名或枚举名，不区分大小写
func ParseOperator(s string) (Operator, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "=", "EQUAL", "EQ":
		return Equal, nil
	case "IN":
		return In, nil
	case "BETWEEN":
		return Between, nil
	default:
		return 0, xerrors.UnsupportedOperation(s)
	}
}
