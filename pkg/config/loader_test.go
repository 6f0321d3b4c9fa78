package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
warehouse:
  general:
    instance_name: test-warehouse
  storage:
    database:
      type: sqlite
      dsn: ${WAREHOUSE_TEST_DSN}
  execution:
    default_call_timeout: 30s
    retry:
      enabled: true
      max_attempts: 2
  server:
    port: 9000
  sources:
    - name: sina_index
      kind: html
      url: https://example.com/index?date=${date}
      encoding: gbk
  schedules:
    - name: daily_index
      cron: "0 30 15 * * 1-5"
      source: sina_index
      mode: upsert
      unique_keys: [code]
    - name: paused
      cron: "@daily"
      source: sina_index
      enabled: false
`

func TestParse(t *testing.T) {
	t.Setenv("WAREHOUSE_TEST_DSN", "./warehouse.db")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	w := cfg.Warehouse
	assert.Equal(t, "test-warehouse", w.General.InstanceName)
	assert.Equal(t, "sqlite", cfg.GetDatabaseType())
	assert.Equal(t, "./warehouse.db", cfg.GetDatabaseDSN())
	assert.Equal(t, 30*time.Second, w.Execution.DefaultCallTimeout)
	assert.Equal(t, 1000, w.Execution.BatchSize)
	assert.Equal(t, 2, w.Execution.Retry.MaxAttempts)
	assert.Equal(t, "0.0.0.0:9000", cfg.GetAddr())
	assert.Equal(t, "ak_", w.Storage.TablePrefix)

	require.Len(t, w.Sources, 1)
	// 小写占位符留给数据源模板
	assert.Equal(t, "https://example.com/index?date=${date}", w.Sources[0].URL)

	require.Len(t, w.Schedules, 2)
	assert.True(t, w.Schedules[0].IsEnabled())
	assert.False(t, w.Schedules[1].IsEnabled())
	assert.Equal(t, []string{"code"}, w.Schedules[0].UniqueKeys)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("WAREHOUSE_HOST", "db.local")
	assert.Equal(t, "db.local:3306/${symbol}", expandEnv("${WAREHOUSE_HOST}:3306/${symbol}"))
	assert.Equal(t, ":", expandEnv("${WAREHOUSE_UNSET_VAR}:"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
warehouse:
  storage:
    database:
      type: mysql
      dsn: "user:pass@tcp(127.0.0.1:3306)/akshare"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "akshare-warehouse", cfg.Warehouse.General.InstanceName)
	assert.Equal(t, 8000, cfg.Warehouse.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Warehouse.Execution.DefaultCallTimeout)
}
