package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/shardkit/xerrors"
)

// TestLoaderLoad 验证配置来源优先级
func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
app:
  name: "base-app"
  version: "1.0.0"
  debug: false
db:
  driver: mysql
  max_open_conns: 10
`)
	writeFile(t, dir, "config.dev.yaml", `
app:
  debug: true
db:
  max_open_conns: 20
`)
	writeFile(t, dir, ".env", "SKTEST_CLOG_LEVEL=debug\n")
	t.Cleanup(func() { os.Unsetenv("SKTEST_CLOG_LEVEL") })

	t.Setenv("SKTEST_ENV", "dev")
	t.Setenv("SKTEST_APP_NAME", "env-app")
	t.Setenv("SKTEST_DB_DRIVER", "sqlite")

	l, err := New(WithConfigPaths(dir), WithEnvPrefix("sktest"))
	require.NoError(t, err)
	require.NoError(t, l.Load(context.Background()))

	// 环境变量
	assert.Equal(t, "env-app", l.Get("app.name"))
	assert.Equal(t, "sqlite", l.Get("db.driver"))
	// .env
	assert.Equal(t, "debug", l.Get("clog.level"))
	// 环境特定配置
	assert.Equal(t, true, l.Get("app.debug"))
	assert.Equal(t, 20, l.Get("db.max_open_conns"))
	// 基础配置
	assert.Equal(t, "1.0.0", l.Get("app.version"))

	var app struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
		Debug   bool   `mapstructure:"debug"`
	}
	require.NoError(t, l.UnmarshalKey("app", &app))
	assert.Equal(t, "env-app", app.Name)
	assert.True(t, app.Debug)
}

func TestLoaderLoad_MissingEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "app:\n  name: base\n")
	t.Setenv("SHARDKIT_ENV", "staging")

	l, err := New(WithConfigPaths(dir))
	require.NoError(t, err)
	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, "base", l.Get("app.name"))
}

func TestLoaderLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "app: [unclosed\n")

	l, err := New(WithConfigPaths(dir))
	require.NoError(t, err)
	err = l.Load(context.Background())
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestLoaderValidate(t *testing.T) {
	l, err := New(WithConfigPaths(t.TempDir()))
	require.NoError(t, err)

	err = l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Equal(t, xerrors.CodeInvalidInput, xerrors.GetCode(err))
}

func TestLoaderWatch(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "watch.yaml")
	require.NoError(t, os.WriteFile(file, []byte("routing:\n  version: 1\n  name: initial\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	l, err := New(WithConfigName("watch"), WithConfigPaths(dir))
	require.NoError(t, err)
	require.NoError(t, l.Load(ctx))

	versionCh, err := l.Watch(ctx, "routing.version")
	require.NoError(t, err)
	nameCh, err := l.Watch(ctx, "routing.name")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(file, []byte("routing:\n  version: 2\n  name: updated\n"), 0o644))

	seen := map[string]Event{}
	timeout := time.After(5 * time.Second)
	for len(seen) < 2 {
		select {
		case ev := <-versionCh:
			seen[ev.Key] = ev
		case ev := <-nameCh:
			seen[ev.Key] = ev
		case <-timeout:
			t.Fatalf("timeout waiting for config change events, got %d", len(seen))
		}
	}

	assert.Equal(t, 2, seen["routing.version"].Value)
	assert.Equal(t, 1, seen["routing.version"].OldValue)
	assert.Equal(t, "updated", seen["routing.name"].Value)
	assert.Equal(t, "initial", seen["routing.name"].OldValue)
	assert.Equal(t, "file", seen["routing.name"].Source)
	assert.False(t, seen["routing.name"].Timestamp.IsZero())
}

func TestLoaderWatchCancel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "test: {value: 1}\n")

	l, err := New(WithConfigPaths(dir))
	require.NoError(t, err)
	require.NoError(t, l.Load(context.Background()))

	watchCtx, cancel := context.WithCancel(context.Background())
	ch, err := l.Watch(watchCtx, "test.value")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "watch channel should be closed after cancellation")
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed")
	}
}

func TestLoaderWatchEmptyKey(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	_, err = l.Watch(context.Background(), "")
	assert.True(t, IsInvalidInput(err))
}
