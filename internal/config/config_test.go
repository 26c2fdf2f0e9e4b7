package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, NotifyLog, cfg.Notify.Driver)
	assert.False(t, cfg.Relation.BlockDissolvesTies)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  http_addr: ":9090"
  log_level: debug
mysql:
  dsn: "root:pw@tcp(db:3306)/social"
notify:
  driver: nats
  interval: 3s
reconciler:
  interval: 10m
relation:
  block_dissolves_ties: true
`), 0o600))

	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.App.HTTPAddr)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "root:pw@tcp(db:3306)/social", cfg.MySQL.DSN)
	assert.Equal(t, NotifyNats, cfg.Notify.Driver)
	assert.Equal(t, 3*time.Second, cfg.Notify.Interval)
	assert.Equal(t, 10*time.Minute, cfg.Reconciler.Interval)
	assert.True(t, cfg.Relation.BlockDissolvesTies)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notify.Kafka.Brokers)
	// 未出现在文件里的字段保持默认值
	assert.Equal(t, 500, cfg.Reconciler.BatchSize)
}

func TestValidate(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	_, err := Load("")
	assert.ErrorContains(t, err, "overridden in production")

	t.Setenv("JWT_ACCESS_SECRET", "prod-a")
	t.Setenv("JWT_REFRESH_SECRET", "prod-r")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())

	t.Setenv("JWT_REFRESH_SECRET", "prod-a")
	_, err = Load("")
	assert.ErrorContains(t, err, "must differ")

	cfg = Default()
	cfg.Notify.Driver = "carrier-pigeon"
	cfg.App.Env = "staging"
	err = cfg.Validate()
	assert.ErrorContains(t, err, "notify.driver")
	assert.ErrorContains(t, err, "app.env")
}
