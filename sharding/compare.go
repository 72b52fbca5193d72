package sharding

import (
	"bytes"
	"cmp"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/ceyewan/shardkit/xerrors"
)

// Comparable 自定义分片值类型实现此接口即可参与比较
type Comparable interface {
	// CompareTo 返回 -1/0/1，类型不兼容时返回错误
	CompareTo(other any) (int, error)
}

// Compare 比较两个分片值，返回 -1、0 或 1
//
// 支持：实现 Comparable 的类型、所有整数与浮点类型（跨类型按精确十进制比较）、
// decimal.Decimal、string、[]byte、bool、time.Time。
// 字符串与数值比较时，字符串按十进制数解析。其余组合返回 ErrInvalidArgument。
func Compare(a, b any) (int, error) {
	if c, ok := a.(Comparable); ok {
		return c.CompareTo(b)
	}
	if c, ok := b.(Comparable); ok {
		r, err := c.CompareTo(a)
		return -r, err
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case []byte:
		if y, ok := b.([]byte); ok {
			return bytes.Compare(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareBool(x, y), nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	}

	if isNumeric(a) || isNumeric(b) {
		return compareNumeric(a, b)
	}
	return 0, incomparable(a, b)
}

func compareBool(x, y bool) int {
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	default:
		return 1
	}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, decimal.Decimal:
		return true
	}
	return false
}

func compareNumeric(a, b any) (int, error) {
	fa, aFloat := asFloat(a)
	fb, bFloat := asFloat(b)
	if aFloat && bFloat {
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return 0, incomparable(a, b)
		}
		return cmp.Compare(fa, fb), nil
	}
	// 无穷大无法转换为 decimal，直接由符号决定
	if aFloat && math.IsInf(fa, 0) {
		return int(math.Copysign(1, fa)), nil
	}
	if bFloat && math.IsInf(fb, 0) {
		return -int(math.Copysign(1, fb)), nil
	}

	da, err := toDecimal(a)
	if err != nil {
		return 0, incomparable(a, b)
	}
	db, err := toDecimal(b)
	if err != nil {
		return 0, incomparable(a, b)
	}
	return da.Cmp(db), nil
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case int, int8, int16, int32, int64:
		n, err := cast.ToInt64E(x)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromInt(n), nil
	case uint, uint8, uint16, uint32, uint64:
		n, err := cast.ToUint64E(x)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(strconv.FormatUint(n, 10))
	case float32:
		if math.IsNaN(float64(x)) {
			return decimal.Decimal{}, xerrors.InvalidArgument("NaN is not comparable")
		}
		return decimal.NewFromFloat32(x), nil
	case float64:
		if math.IsNaN(x) {
			return decimal.Decimal{}, xerrors.InvalidArgument("NaN is not comparable")
		}
		return decimal.NewFromFloat(x), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(x)))
	}
	return decimal.Decimal{}, xerrors.InvalidArgument("%T is not numeric", v)
}

func incomparable(a, b any) error {
	return xerrors.InvalidArgument("cannot compare %T with %T", a, b)
}
