package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
server:
  host: 127.0.0.1
  port: 8080
  mode: release
database:
  host: db
  port: 3306
  database: subscriptions
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "subscriptions", cfg.Database.Database)

	assert.Equal(t, defaultExpireQueue, cfg.Expiry.Queue)
	assert.Equal(t, defaultEventChannel, cfg.Expiry.EventChannel)
	assert.Equal(t, defaultSweepInterval, cfg.Expiry.SweepInterval)
	assert.Equal(t, defaultSweepBatch, cfg.Expiry.BatchSize)
	assert.Equal(t, defaultMaxWorkers, cfg.Expiry.MaxWorkers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, defaultArchivePrefix, cfg.OSS.ArchivePrefix)
	assert.False(t, cfg.OSS.Enabled())
}

func TestLoad_PrefersLocalConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
jwt:
  secret: placeholder
`)
	writeConfig(t, dir, "config.local.yaml", `
jwt:
  secret: real-secret
  admin_user_ids: [1, 7]
expiry:
  queue: custom_queue
  max_workers: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "real-secret", cfg.JWT.Secret)
	assert.Equal(t, []int64{1, 7}, cfg.JWT.AdminUserIDs)
	assert.Equal(t, "custom_queue", cfg.Expiry.Queue)
	assert.Equal(t, 8, cfg.Expiry.MaxWorkers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOSSConfig_Enabled(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
oss:
  endpoint: oss-cn-hangzhou.aliyuncs.com
  access_key_id: id
  access_key_secret: secret
  bucket_name: subs-archive
  archive_prefix: purged
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.OSS.Enabled())
	assert.Equal(t, "purged", cfg.OSS.ArchivePrefix)
	assert.Equal(t, "subs-archive", cfg.OSS.BucketName)
}
