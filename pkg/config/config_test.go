package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 2, cfg.ScanConcurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.ScanSpacing)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 10*time.Second, cfg.LinkFetchTimeout)
	assert.Equal(t, 5*time.Second, cfg.RobotsTimeout)
	assert.Equal(t, time.Hour, cfg.RobotsCacheTTL)
	assert.Equal(t, 50, cfg.DefaultMaxPages)
	assert.Equal(t, 3, cfg.DefaultMaxDepth)
	assert.NotEmpty(t, cfg.UserAgent)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/crawl.db")
	t.Setenv("SCAN_CONCURRENCY", "5")
	t.Setenv("SCAN_SPACING", "1s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DEFAULT_MAX_PAGES", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/crawl.db", cfg.SQLitePath)
	assert.Equal(t, 5, cfg.ScanConcurrency)
	assert.Equal(t, time.Second, cfg.ScanSpacing)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 10, cfg.DefaultMaxPages)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestValidate(t *testing.T) {
	valid := Config{
		StoreDriver:       DriverSQLite,
		ScanConcurrency:   1,
		WorkerConcurrency: 1,
		DefaultMaxPages:   1,
		AxeSourceURL:      "https://example.com/axe.js",
	}
	require.NoError(t, valid.Validate())

	c := valid
	c.ScanConcurrency = 0
	assert.Error(t, c.Validate())

	c = valid
	c.DefaultMaxDepth = -1
	assert.Error(t, c.Validate())

	c = valid
	c.AxeSourceURL = ""
	assert.Error(t, c.Validate())
}
