package routing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/ceyewan/shardkit/hint"
	"github.com/ceyewan/shardkit/sharding"
	"github.com/ceyewan/shardkit/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRule() Rule {
	return Rule{
		LogicTable:     "t_order",
		DatabaseColumn: "user_id",
		TableColumn:    "order_id",
		DataSources:    []string{"ds_0", "ds_1"},
		NumberOfTables: 4,
		Algorithm:      AlgorithmMod,
	}
}

func newTestRouter(t *testing.T, rules ...Rule) *Router {
	t.Helper()
	if len(rules) == 0 {
		rules = []Rule{orderRule()}
	}
	r, err := New(&Config{Rules: rules})
	require.NoError(t, err)
	return r
}

func cond(t *testing.T, column string, op sharding.Operator, values ...any) sharding.Value {
	t.Helper()
	v, err := sharding.New("t_order", column, op, values...)
	require.NoError(t, err)
	return v
}

func TestRoute_Predicate(t *testing.T) {
	r := newTestRouter(t)

	res, err := r.Route(context.Background(), "t_order",
		cond(t, "user_id", sharding.Equal, 3),
		cond(t, "order_id", sharding.In, 1, 5, 6),
		cond(t, "status", sharding.Equal, "paid"),
	)
	require.NoError(t, err)
	assert.Equal(t, SourcePredicate, res.Source)
	assert.Equal(t, []string{"ds_1"}, res.DataSources)
	assert.Equal(t, []string{"t_order_1", "t_order_2"}, res.Tables)
	assert.False(t, res.MasterOnly)
	assert.False(t, res.DatabaseOnly)
}

func TestRoute_Broadcast(t *testing.T) {
	r := newTestRouter(t)

	res, err := r.Route(context.Background(), "t_order")
	require.NoError(t, err)
	assert.Equal(t, SourceBroadcast, res.Source)
	assert.Equal(t, []string{"ds_0", "ds_1"}, res.DataSources)
	assert.Equal(t, []string{"t_order_0", "t_order_1", "t_order_2", "t_order_3"}, res.Tables)
	assert.Len(t, res.Units(), 8)
	_, single := res.Single()
	assert.False(t, single)
}

func TestRoute_HintOverridesPredicate(t *testing.T) {
	r := newTestRouter(t)

	ctx, m := hint.Obtain(context.Background())
	defer m.Close()
	require.NoError(t, m.AddDatabaseShardingValue("t_order", "user_id", 2))
	require.NoError(t, m.AddTableShardingValue("t_order", "order_id", 7))
	require.NoError(t, m.SetMasterRouteOnly())

	res, err := r.Route(ctx, "t_order", cond(t, "user_id", sharding.Equal, 3))
	require.NoError(t, err)
	assert.Equal(t, SourceHint, res.Source)
	assert.True(t, res.MasterOnly)

	unit, ok := res.Single()
	require.True(t, ok)
	assert.Equal(t, Unit{DataSource: "ds_0", Table: "t_order_3"}, unit)
}

func TestRoute_HintForOtherTableIgnored(t *testing.T) {
	r := newTestRouter(t)

	ctx, m := hint.Obtain(context.Background())
	defer m.Close()
	require.NoError(t, m.AddDatabaseShardingValue("t_user", "user_id", 2))

	res, err := r.Route(ctx, "t_order", cond(t, "order_id", sharding.Equal, 2))
	require.NoError(t, err)
	assert.Equal(t, SourcePredicate, res.Source)
	assert.Equal(t, []string{"ds_0", "ds_1"}, res.DataSources)
	assert.Equal(t, []string{"t_order_2"}, res.Tables)
}

func TestRoute_DatabaseShardingOnly(t *testing.T) {
	r := newTestRouter(t)

	ctx, m := hint.Obtain(context.Background())
	defer m.Close()
	require.NoError(t, m.SetDatabaseShardingValue(1))

	res, err := r.Route(ctx, "t_order", cond(t, "order_id", sharding.Equal, 2))
	require.NoError(t, err)
	assert.True(t, res.DatabaseOnly)
	assert.Equal(t, SourceHint, res.Source)
	assert.Equal(t, []string{"ds_1"}, res.DataSources)
	assert.Equal(t, orderRule().LogicTable+"_0", res.Tables[0])
	assert.Len(t, res.Tables, 4)
}

func TestRoute_ClosedHintFallsBack(t *testing.T) {
	r := newTestRouter(t)

	ctx, m := hint.Obtain(context.Background())
	require.NoError(t, m.AddTableShardingValue("t_order", "order_id", 1))
	require.NoError(t, m.Close())

	res, err := r.Route(ctx, "t_order", cond(t, "order_id", sharding.Equal, 2))
	require.NoError(t, err)
	assert.Equal(t, SourcePredicate, res.Source)
	assert.Equal(t, []string{"t_order_2"}, res.Tables)
}

func TestRoute_Range(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	res, err := r.Route(ctx, "t_order", cond(t, "order_id", sharding.Between, 5, 6))
	require.NoError(t, err)
	assert.Equal(t, []string{"t_order_1", "t_order_2"}, res.Tables)

	res, err = r.Route(ctx, "t_order", cond(t, "order_id", sharding.Between, 1, 10))
	require.NoError(t, err)
	assert.Len(t, res.Tables, 4)

	_, err = r.Route(ctx, "t_order", cond(t, "order_id", sharding.Between, 5, 3))
	assert.ErrorIs(t, err, xerrors.ErrNoRoute)

	_, err = r.Route(ctx, "t_order", cond(t, "order_id", sharding.Between, "a", "b"))
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)
}

func TestRoute_RangeCrossingZero(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	res, err := r.Route(ctx, "t_order", cond(t, "order_id", sharding.Between, -1, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"t_order_0", "t_order_1", "t_order_3"}, res.Tables)

	res, err = r.Route(ctx, "t_order", cond(t, "order_id", sharding.Between, -2, 1))
	require.NoError(t, err)
	assert.Len(t, res.Tables, 4)
}

func TestRoute_RangeAtInt64Limits(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name         string
		lower, upper int64
		want         []string
	}{
		{"max edge", math.MaxInt64 - 1, math.MaxInt64, []string{"t_order_2", "t_order_3"}},
		{"min edge", math.MinInt64, math.MinInt64 + 1, []string{"t_order_0", "t_order_1"}},
		{"full int64", math.MinInt64, math.MaxInt64, []string{"t_order_0", "t_order_1", "t_order_2", "t_order_3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, m := hint.Obtain(context.Background())
			defer m.Close()
			require.NoError(t, m.AddTableShardingRange("t_order", "order_id", tt.lower, tt.upper))

			done := make(chan Result, 1)
			go func() {
				res, err := r.Route(ctx, "t_order")
				assert.NoError(t, err)
				done <- res
			}()
			select {
			case res := <-done:
				assert.Equal(t, tt.want, res.Tables)
			case <-time.After(3 * time.Second):
				t.Fatal("route did not return")
			}
		})
	}
}

func TestRoute_FractionalValueRejected(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	_, err := r.Route(ctx, "t_order", cond(t, "order_id", sharding.Equal, 3.7))
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)

	_, err = r.Route(ctx, "t_order", cond(t, "order_id", sharding.Between, 1.5, 2))
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)

	res, err := r.Route(ctx, "t_order", cond(t, "order_id", sharding.Equal, 6.0))
	require.NoError(t, err)
	assert.Equal(t, []string{"t_order_2"}, res.Tables)
}

func TestRoute_Errors(t *testing.T) {
	r := newTestRouter(t)

	_, err := r.Route(context.Background(), "t_unknown")
	assert.ErrorIs(t, err, xerrors.ErrNoRoute)

	_, err = r.Route(context.Background(), "t_order", cond(t, "order_id", sharding.Equal, "abc"))
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)
}

func TestRoute_Hash(t *testing.T) {
	rule := orderRule()
	rule.Algorithm = AlgorithmHash
	r := newTestRouter(t, rule)
	ctx := context.Background()

	first, err := r.Route(ctx, "t_order", cond(t, "order_id", sharding.Equal, "A-1001"))
	require.NoError(t, err)
	require.Len(t, first.Tables, 1)

	again, err := r.Route(ctx, "t_order", cond(t, "order_id", sharding.Equal, "A-1001"))
	require.NoError(t, err)
	assert.Equal(t, first.Tables, again.Tables)

	// hash 不支持范围收窄
	res, err := r.Route(ctx, "t_order", cond(t, "order_id", sharding.Between, 1, 2))
	require.NoError(t, err)
	assert.Len(t, res.Tables, 4)
}

func TestModShard(t *testing.T) {
	tests := []struct {
		value any
		n     int
		want  int
	}{
		{7, 4, 3},
		{int64(8), 4, 0},
		{"9", 4, 1},
		{-1, 4, 3},
		{uint8(5), 2, 1},
		{float64(8), 4, 0},
	}
	for _, tt := range tests {
		got, err := modShard(tt.value, tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "value=%v", tt.value)
	}

	_, err := modShard(float32(2.5), 4)
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)
}

func TestPhysicalTables(t *testing.T) {
	rule := Rule{LogicTable: "t", TableColumn: "id", DataSources: []string{"ds"}, NumberOfTables: 16}
	rule.setDefaults()
	tables := rule.PhysicalTables()
	assert.Len(t, tables, 16)
	assert.Equal(t, "t_00", tables[0])
	assert.Equal(t, "t_15", tables[15])

	single := Rule{LogicTable: "t", DataSources: []string{"ds"}}
	single.setDefaults()
	assert.Equal(t, []string{"t"}, single.PhysicalTables())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	tests := []struct {
		name   string
		mutate func(*Rule)
		target error
	}{
		{"missing logic table", func(r *Rule) { r.LogicTable = "" }, xerrors.ErrInvalidInput},
		{"missing data sources", func(r *Rule) { r.DataSources = nil }, xerrors.ErrInvalidInput},
		{"empty data source", func(r *Rule) { r.DataSources = []string{"ds_0", ""} }, xerrors.ErrInvalidInput},
		{"missing table column", func(r *Rule) { r.TableColumn = "" }, xerrors.ErrInvalidInput},
		{"missing database column", func(r *Rule) { r.DatabaseColumn = "" }, xerrors.ErrInvalidInput},
		{"unknown algorithm", func(r *Rule) { r.Algorithm = "range" }, xerrors.ErrUnsupportedOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := orderRule()
			tt.mutate(&rule)
			_, err := New(&Config{Rules: []Rule{rule}})
			assert.ErrorIs(t, err, tt.target)
		})
	}

	_, err = New(&Config{Rules: []Rule{orderRule(), orderRule()}})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestRouter_Accessors(t *testing.T) {
	user := Rule{LogicTable: "t_user", DataSources: []string{"ds_0"}}
	r := newTestRouter(t, orderRule(), user)

	assert.Equal(t, []string{"t_order", "t_user"}, r.LogicTables())
	rule, ok := r.Rule("t_user")
	require.True(t, ok)
	assert.Equal(t, 1, rule.NumberOfTables)
	assert.Equal(t, AlgorithmMod, rule.Algorithm)
	_, ok = r.Rule("t_missing")
	assert.False(t, ok)
}
