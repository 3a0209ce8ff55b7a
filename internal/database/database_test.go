package database

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/model"
)

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(&config.DatabaseConfig{
		Host:     "db.internal",
		Port:     3306,
		Username: "subs",
		Password: "secret",
		Database: "subscriptions",
	})

	assert.Equal(t, "subs:secret@tcp(db.internal:3306)/subscriptions?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}

func TestMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&model.Subscription{}))
	assert.True(t, db.Migrator().HasIndex(&model.Subscription{}, "idx_subscriptions_user_provider"))
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewRedis(&config.RedisConfig{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, _ := strconv.Atoi(mr.Port())
	mr.Close()

	_, err := NewRedis(&config.RedisConfig{Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}
