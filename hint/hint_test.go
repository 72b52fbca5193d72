package hint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ceyewan/shardkit/sharding"
	"github.com/ceyewan/shardkit/xerrors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestObtain_StartsEmpty(t *testing.T) {
	ctx, m := Obtain(context.Background())
	defer m.Close()

	_, ok := m.DatabaseShardingValue("t_order")
	assert.False(t, ok)
	_, ok = m.TableShardingValue("t_order")
	assert.False(t, ok)
	assert.False(t, m.MasterRouteOnly())
	assert.False(t, m.DatabaseShardingOnly())

	bound, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, m, bound)
}

func TestFromContext_Unbound(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestAddTableShardingValue_Overwrites(t *testing.T) {
	_, m := Obtain(context.Background())
	defer m.Close()

	require.NoError(t, m.AddTableShardingValue("orders", "id", 5))
	require.NoError(t, m.AddTableShardingValue("orders", "id", 9))

	v, ok := m.TableShardingValue("orders")
	require.True(t, ok)
	assert.Equal(t, sharding.KindList, v.Kind())
	assert.Equal(t, []any{9}, v.Values())
	assert.Len(t, m.tableValues, 1)

	_, ok = m.DatabaseShardingValue("orders")
	assert.False(t, ok, "table hint must not leak into database map")
}

func TestAddShardingValue_Overloads(t *testing.T) {
	_, m := Obtain(context.Background())
	defer m.Close()

	require.NoError(t, m.AddDatabaseShardingValue("t_order", "user_id", 1))
	require.NoError(t, m.AddDatabaseShardingValues("t_item", "user_id", 1, 2, 3))
	require.NoError(t, m.AddDatabaseShardingRange("t_log", "user_id", 10, 20))
	require.NoError(t, m.AddTableShardingValues("t_order", "order_id", 7, 8))
	require.NoError(t, m.AddTableShardingRange("t_item", "order_id", 100, 200))

	v, ok := m.DatabaseShardingValue("t_order")
	require.True(t, ok)
	assert.Equal(t, []any{1}, v.Values())

	v, ok = m.DatabaseShardingValue("t_item")
	require.True(t, ok)
	assert.Equal(t, []any{1, 2, 3}, v.Values())

	v, ok = m.DatabaseShardingValue("t_log")
	require.True(t, ok)
	r, isRange := v.Range()
	require.True(t, isRange)
	assert.Equal(t, sharding.Range{Lower: 10, Upper: 20}, r)

	v, ok = m.TableShardingValue("t_order")
	require.True(t, ok)
	assert.Equal(t, "order_id", v.Column())
	assert.Equal(t, []any{7, 8}, v.Values())

	v, ok = m.TableShardingValue("t_item")
	require.True(t, ok)
	assert.Equal(t, sharding.KindRange, v.Kind())
}

func TestSetDatabaseShardingValue(t *testing.T) {
	_, m := Obtain(context.Background())
	defer m.Close()

	require.NoError(t, m.SetDatabaseShardingValue(3))
	assert.True(t, m.DatabaseShardingOnly())

	v, ok := m.DatabaseShardingValue(DatabaseOnlyTable)
	require.True(t, ok)
	assert.Equal(t, DatabaseOnlyColumn, v.Column())
	assert.Equal(t, []any{3}, v.Values())
}

func TestSetMasterRouteOnly(t *testing.T) {
	_, m := Obtain(context.Background())
	defer m.Close()

	require.NoError(t, m.SetMasterRouteOnly())
	assert.True(t, m.MasterRouteOnly())
	assert.False(t, m.DatabaseShardingOnly())
}

func TestInvalidValue_NoPartialState(t *testing.T) {
	_, m := Obtain(context.Background())
	defer m.Close()

	require.NoError(t, m.AddTableShardingValue("orders", "id", 1))

	err := m.AddTableShardingValues("orders", "id")
	require.ErrorIs(t, err, xerrors.ErrInvalidArgument)

	err = m.SetDatabaseShardingValue(nil)
	require.ErrorIs(t, err, xerrors.ErrInvalidArgument)
	assert.False(t, m.DatabaseShardingOnly(), "failed set must not flip the flag")

	v, ok := m.TableShardingValue("orders")
	require.True(t, ok)
	assert.Equal(t, []any{1}, v.Values())
}

func TestClose_ClearsBinding(t *testing.T) {
	ctx, m := Obtain(context.Background())
	require.NoError(t, m.AddTableShardingValue("orders", "id", 1))
	require.NoError(t, m.SetMasterRouteOnly())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "close is idempotent")

	_, ok := FromContext(ctx)
	assert.False(t, ok)
	_, ok = m.TableShardingValue("orders")
	assert.False(t, ok)
	assert.False(t, m.MasterRouteOnly())
	assert.ErrorIs(t, m.AddTableShardingValue("orders", "id", 2), xerrors.ErrClosed)
	assert.ErrorIs(t, m.SetMasterRouteOnly(), xerrors.ErrClosed)

	// 同一执行链上的下一次 Obtain 从空上下文开始
	ctx2, m2 := Obtain(ctx)
	defer m2.Close()
	_, ok = m2.TableShardingValue("orders")
	assert.False(t, ok)
	bound, ok := FromContext(ctx2)
	require.True(t, ok)
	assert.Same(t, m2, bound)
}

func TestObtain_SupersedesPrevious(t *testing.T) {
	ctx1, m1 := Obtain(context.Background())
	require.NoError(t, m1.AddTableShardingValue("orders", "id", 1))

	ctx2, m2 := Obtain(ctx1)
	defer m2.Close()

	assert.True(t, m1.IsClosed())
	_, ok := FromContext(ctx1)
	assert.False(t, ok, "superseded scope must not stay visible")

	bound, ok := FromContext(ctx2)
	require.True(t, ok)
	assert.Same(t, m2, bound)
	_, ok = bound.TableShardingValue("orders")
	assert.False(t, ok)

	require.NoError(t, m1.Close())
	assert.False(t, m2.IsClosed())
}

func TestUse_ReleasesOnEveryExitPath(t *testing.T) {
	var captured *Manager
	boom := errors.New("boom")

	err := Use(context.Background(), func(ctx context.Context, m *Manager) error {
		captured = m
		require.NoError(t, m.AddDatabaseShardingValue("orders", "user_id", 1))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, captured.IsClosed())

	assert.Panics(t, func() {
		_ = Use(context.Background(), func(ctx context.Context, m *Manager) error {
			captured = m
			panic("handler exploded")
		})
	})
	assert.True(t, captured.IsClosed())

	err = Use(context.Background(), func(ctx context.Context, m *Manager) error {
		captured = m
		_, ok := FromContext(ctx)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, captured.IsClosed())
}

func TestConcurrentScopes_AreIsolated(t *testing.T) {
	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)

	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			err := Use(context.Background(), func(ctx context.Context, m *Manager) error {
				if err := m.AddDatabaseShardingValue("orders", "user_id", i); err != nil {
					return err
				}
				got, ok := FromContext(ctx)
				if !ok {
					return fmt.Errorf("worker %d lost its scope", i)
				}
				v, ok := got.DatabaseShardingValue("orders")
				if !ok || v.Values()[0] != i {
					return fmt.Errorf("worker %d observed %v", i, v)
				}
				return nil
			})
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			if m, ok := FromContext(ctx); ok {
				if _, found := m.DatabaseShardingValue("orders"); found {
					errs <- fmt.Errorf("unrelated worker observed a binding")
					return
				}
			}
			errs <- nil
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestManager_SharedAcrossGoroutinesOfOneScope(t *testing.T) {
	ctx, m := Obtain(context.Background())
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bound, ok := FromContext(ctx)
			if !ok {
				return
			}
			_ = bound.AddTableShardingValue(fmt.Sprintf("t_%d", i), "id", i)
			_, _ = bound.TableShardingValue("t_0")
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		_, ok := m.TableShardingValue(fmt.Sprintf("t_%d", i))
		assert.True(t, ok)
	}
}
