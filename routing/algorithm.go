package routing

import (
	"fmt"
	"math"
	"sort"

	"github.com/ceyewan/shardkit/sharding"
	"github.com/ceyewan/shardkit/xerrors"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cast"
)

// Sharder 把一个分片键值映射到 [0, n) 的分片序号
type Sharder interface {
	Shard(value any, n int) (int, error)
}

// SharderFunc 函数形式的 Sharder
type SharderFunc func(value any, n int) (int, error)

func (f SharderFunc) Shard(value any, n int) (int, error) { return f(value, n) }

var sharders = map[Algorithm]Sharder{
	AlgorithmMod:  SharderFunc(modShard),
	AlgorithmHash: SharderFunc(hashShard),
}

func sharderFor(a Algorithm) (Sharder, error) {
	s, ok := sharders[a]
	if !ok {
		return nil, xerrors.UnsupportedOperation(fmt.Sprintf("sharding algorithm %q", a))
	}
	return s, nil
}

// toInteger 转换为 int64，带小数部分的浮点数不会被截断而是报错
func toInteger(value any) (int64, bool) {
	switch f := value.(type) {
	case float32:
		if float64(f) != math.Trunc(float64(f)) {
			return 0, false
		}
	case float64:
		if f != math.Trunc(f) {
			return 0, false
		}
	}
	x, err := cast.ToInt64E(value)
	return x, err == nil
}

func modShard(value any, n int) (int, error) {
	x, ok := toInteger(value)
	if !ok {
		return 0, xerrors.InvalidArgument("mod sharding needs an integer value, got %T(%v)", value, value)
	}
	return modIndex(x, n), nil
}

func modIndex(x int64, n int) int {
	m := x % int64(n)
	if m < 0 {
		m += int64(n)
	}
	return int(m)
}

func hashShard(value any, n int) (int, error) {
	s, err := cast.ToStringE(value)
	if err != nil {
		return 0, xerrors.InvalidArgument("hash sharding needs a scalar value, got %T", value)
	}
	return int(xxhash.Sum64String(s) % uint64(n)), nil
}

// shardIndexes 计算分片值命中的分片序号（升序去重），ok 为 false 表示无法收窄需要全路由
func shardIndexes(alg Algorithm, v sharding.Value, n int) (idx []int, ok bool, err error) {
	if n <= 1 {
		return []int{0}, true, nil
	}
	s, err := sharderFor(alg)
	if err != nil {
		return nil, false, err
	}

	switch v.Kind() {
	case sharding.KindList:
		seen := make(map[int]struct{})
		for _, each := range v.Values() {
			i, err := s.Shard(each, n)
			if err != nil {
				return nil, false, err
			}
			seen[i] = struct{}{}
		}
		return sortedKeys(seen), true, nil
	case sharding.KindRange:
		if alg != AlgorithmMod {
			return nil, false, nil
		}
		rng, _ := v.Range()
		lower, lok := toInteger(rng.Lower)
		upper, uok := toInteger(rng.Upper)
		if !lok || !uok {
			return nil, false, xerrors.InvalidArgument("mod sharding needs integer range bounds, got %s", rng)
		}
		if upper < lower {
			return nil, true, nil
		}
		// 跨度按 uint64 计算避免溢出，不小于分片数时必然覆盖全部分片
		span := uint64(upper) - uint64(lower)
		if span >= uint64(n-1) {
			return nil, false, nil
		}
		seen := make(map[int]struct{})
		for i := int64(0); i <= int64(span); i++ {
			seen[modIndex(lower+i, n)] = struct{}{}
		}
		return sortedKeys(seen), true, nil
	default:
		return nil, false, nil
	}
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func formatSuffix(format string, idx int) string {
	return fmt.Sprintf(format, idx)
}
