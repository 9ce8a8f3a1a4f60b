package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"freightquote/internal/cache"
)

// 环境变量
const (
	EnvPort      = "FREIGHTQUOTE_PORT"
	EnvDataDir   = "FREIGHTQUOTE_DATA_DIR"
	EnvWorkbook  = "FREIGHTQUOTE_WORKBOOK"
	EnvLogLevel  = "FREIGHTQUOTE_LOG_LEVEL"
	EnvRedisAddr = "FREIGHTQUOTE_REDIS_ADDR"
)

// LoadDotEnv 加载 .env（不存在时忽略）；已有的环境变量不被覆盖
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// applyEnv 环境变量覆盖配置文件
func applyEnv(cfg *AppConfig, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", EnvPort, v, err)
		}
		cfg.Server.Port = port
	}
	if v := strings.TrimSpace(getenv(EnvDataDir)); v != "" {
		cfg.Data.DataDir = v
	}
	if v := strings.TrimSpace(getenv(EnvWorkbook)); v != "" {
		cfg.Data.DefaultWorkbook = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvRedisAddr)); v != "" {
		cfg.Cache.RedisAddr = v
		cfg.Cache.Backend = cache.BackendRedis
	}
	return nil
}
