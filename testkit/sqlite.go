package testkit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDSN 返回独立的内存数据库 DSN，同一 DSN 的多个连接共享数据
func NewSQLiteDSN() string {
	return fmt.Sprintf("file:shardkit_%s?mode=memory&cache=shared", NewID())
}

// NewSQLiteDB 打开内存 SQLite，生命周期由 t.Cleanup 管理
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(NewSQLiteDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err, "failed to get sqlite db instance")
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}
