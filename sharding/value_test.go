package sharding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/shardkit/xerrors"
)

func TestNew_EqualAndInProduceSameList(t *testing.T) {
	for _, values := range [][]any{{5}, {1, 2, 3}, {"a", "b"}} {
		eq, err := New("t_order", "order_id", Equal, values...)
		require.NoError(t, err)
		in, err := New("t_order", "order_id", In, values...)
		require.NoError(t, err)

		assert.Equal(t, KindList, eq.Kind())
		assert.Equal(t, KindList, in.Kind())
		assert.Equal(t, eq.Values(), in.Values())
		assert.Equal(t, values, eq.Values())
	}
}

func TestNew_Between(t *testing.T) {
	v, err := New("t_order", "order_id", Between, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, KindRange, v.Kind())
	assert.Nil(t, v.Values())

	r, ok := v.Range()
	require.True(t, ok)
	assert.Equal(t, Range{Lower: 10, Upper: 20}, r)

	for _, in := range []any{10, 15, 20, int64(12), 19.5} {
		ok, err := v.Contains(in)
		require.NoError(t, err)
		assert.True(t, ok, "%v should be inside", in)
	}
	for _, out := range []any{9, 21, 9.99, uint(100)} {
		ok, err := v.Contains(out)
		require.NoError(t, err)
		assert.False(t, ok, "%v should be outside", out)
	}
}

func TestNew_BetweenInvertedIsEmpty(t *testing.T) {
	v, err := NewRange("t_order", "order_id", 20, 10)
	require.NoError(t, err)

	r, _ := v.Range()
	empty, err := r.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	ok, err := v.Contains(15)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew_BetweenRequiresTwoValues(t *testing.T) {
	_, err := New("t_order", "order_id", Between, 1)
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)

	_, err = New("t_order", "order_id", Between, 1, 2, 3)
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)
}

func TestNew_EmptyValuesFailsForEveryOperator(t *testing.T) {
	for _, op := range []Operator{Equal, In, Between, Operator(42)} {
		_, err := New("t_order", "order_id", op)
		assert.ErrorIs(t, err, xerrors.ErrInvalidArgument, op.String())
		assert.Equal(t, xerrors.CodeInvalidArgument, xerrors.GetCode(err))

		_, err = New("t_order", "order_id", op, []any{}...)
		assert.ErrorIs(t, err, xerrors.ErrInvalidArgument, op.String())
	}
}

func TestNew_UnsupportedOperator(t *testing.T) {
	for _, op := range []Operator{0, Operator(4), Operator(-1)} {
		_, err := New("t_order", "order_id", op, 1)
		require.ErrorIs(t, err, xerrors.ErrUnsupportedOperation)
		assert.Contains(t, err.Error(), op.String())
	}
}

func TestNew_InvalidArguments(t *testing.T) {
	_, err := New("", "order_id", Equal, 1)
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)

	_, err = New("t_order", "", Equal, 1)
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)

	_, err = New("t_order", "order_id", In, 1, nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)
}

func TestValue_Immutable(t *testing.T) {
	input := []any{1, 2}
	v, err := NewList("t_order", "order_id", input...)
	require.NoError(t, err)

	input[0] = 99
	got := v.Values()
	got[1] = 100
	assert.Equal(t, []any{1, 2}, v.Values())
}

func TestValue_ListContains(t *testing.T) {
	v, err := NewList("t_order", "user_id", 3, int64(7), "11")
	require.NoError(t, err)

	for _, x := range []any{3, int32(7), uint8(11), 3.0} {
		ok, err := v.Contains(x)
		require.NoError(t, err)
		assert.True(t, ok, "%v", x)
	}
	ok, err := v.Contains(4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValue_ZeroAndString(t *testing.T) {
	var zero Value
	assert.True(t, zero.IsZero())
	assert.Equal(t, "<empty>", zero.String())
	_, ok := zero.Range()
	assert.False(t, ok)

	v, err := NewRange("t_order", "order_id", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "t_order.order_id BETWEEN 1 AND 5", v.String())
	assert.Equal(t, "t_order", v.LogicTable())
	assert.Equal(t, "order_id", v.Column())
}

func TestParseOperator(t *testing.T) {
	cases := map[string]Operator{"=": Equal, "equal": Equal, "in": In, " BETWEEN ": Between}
	for s, want := range cases {
		got, err := ParseOperator(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got)
	}
	_, err := ParseOperator("LIKE")
	assert.ErrorIs(t, err, xerrors.ErrUnsupportedOperation)
}
