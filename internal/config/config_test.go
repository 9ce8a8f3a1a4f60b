package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightquote/internal/model"
	"freightquote/internal/quote"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, info, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.False(t, info.FileFound)
	assert.Equal(t, 20262, cfg.Server.Port)
	assert.Equal(t, quote.DefaultSkipSheets, cfg.Query.SkipSheets)
	assert.Len(t, cfg.Regions, 6)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 8088
open_browser = false

[query]
skip_sheets = ["说明"]

[query.layout]
warehouse_col = 3
local_rows = [3, 4]
transit_markers = ["运输时效"]

[[regions]]
name = "华东"
aliases = ["上海"]
match = ["华东", "上海"]

[[regions]]
name = "美西"
aliases = ["洛杉矶", "LA"]
match = ["美西"]

[logging]
level = "debug"
format = "json"

[cache]
ttl = "5m"
`)

	cfg, info, err := Load(path)
	require.NoError(t, err)

	assert.True(t, info.FileFound)
	assert.True(t, info.PortSpecified)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.False(t, cfg.Server.OpenBrowser)
	assert.Equal(t, []string{"说明"}, cfg.Query.SkipSheets)
	assert.Equal(t, "json", cfg.Logging.Format)

	ttl, err := cfg.CacheTTL()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ttl)

	opts := cfg.QuoteOptions()
	assert.Equal(t, 3, opts.Layout.WarehouseCol)
	assert.Equal(t, 3, opts.Layout.HeaderRow)
	assert.Equal(t, []int{3, 4}, opts.Layout.LocalRows)
	assert.Equal(t, []string{"运输时效"}, opts.Layout.TransitMarkers)
	assert.Equal(t, []string{"含税"}, opts.Layout.TaxMarkers[model.TaxIncluded])
	assert.Equal(t, []model.Region{"华东", "美西"}, opts.Taxonomy.Regions())
	assert.Equal(t, model.Region("美西"), opts.Taxonomy.Canonicalize("la"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvDataDir, "/var/lib/freightquote")
	t.Setenv(EnvWorkbook, "/srv/报价.xlsx")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvRedisAddr, "127.0.0.1:6379")

	cfg, _, err := Load(writeConfig(t, "[server]\nport = 8088\n"))
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/var/lib/freightquote", cfg.Data.DataDir)
	assert.Equal(t, "/srv/报价.xlsx", cfg.Data.DefaultWorkbook)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "127.0.0.1:6379", cfg.CacheOptions().RedisAddr)
}

func TestLoad_InvalidEnvPort(t *testing.T) {
	t.Setenv(EnvPort, "eighty")

	_, _, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorContains(t, err, EnvPort)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = 0
	cfg.Cache.Backend = "redis"
	cfg.Cache.TTL = "soon"
	cfg.RateLimit.RPS = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "cache.redis_addr")
	assert.Contains(t, err.Error(), "cache.ttl")
	assert.Contains(t, err.Error(), "rate_limit")
}

func TestLoad_MalformedToml(t *testing.T) {
	_, _, err := Load(writeConfig(t, "[server\nport = 1"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FREIGHTQUOTE_TEST_DOTENV=from-file\n"), 0644))

	t.Setenv("FREIGHTQUOTE_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("FREIGHTQUOTE_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("FREIGHTQUOTE_TEST_DOTENV"))
}

func TestEnsureDataDir(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")

	dir, err := EnsureDataDir(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Data.DataDir, dir)
	assert.DirExists(t, filepath.Join(dir, "exports"))
	assert.Equal(t, filepath.Join(dir, "exports", "a.csv"), GetDataPath(cfg, "exports", "a.csv"))
}
