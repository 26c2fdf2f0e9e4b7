// Package testutil 测试用的 SQLite 数据库和 miniredis
package testutil

import (
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Lee_Social/internal/model"
	"Lee_Social/internal/repository/mysql"
)

// NewDB 每个测试一个独立的内存库。只开一个连接，事务内必须只用 tx
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, mysql.Migrate(db))
	return db
}

// CreateUser 直接落库，密码为占位值
func CreateUser(t testing.TB, db *gorm.DB, username string, private bool) *model.User {
	t.Helper()
	u := &model.User{
		Username:  username,
		Password:  "not-a-hash",
		Email:     username + "@example.com",
		IsPrivate: private,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// ReloadUser 重新读取用户，用于断言计数
func ReloadUser(t testing.TB, db *gorm.DB, id uint64) *model.User {
	t.Helper()
	var u model.User
	require.NoError(t, db.First(&u, id).Error)
	return &u
}

func NewRedis(t testing.TB) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}
