package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"freightquote/internal/cache"
	"freightquote/internal/model"
	"freightquote/internal/quote"
)

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig       `toml:"server"`
	Data      DataConfig         `toml:"data"`
	Query     QueryConfig        `toml:"query"`
	Regions   []quote.RegionRule `toml:"regions"`
	Logging   LoggingConfig      `toml:"logging"`
	Cache     CacheConfig        `toml:"cache"`
	RateLimit RateLimitConfig    `toml:"rate_limit"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int  `toml:"port"`
	DevMode     bool `toml:"dev_mode"`
	OpenBrowser bool `toml:"open_browser"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir         string `toml:"data_dir"`
	DefaultWorkbook string `toml:"default_workbook"` // 启动时自动加载的报价表
	DBFile          string `toml:"db_file"`
}

// QueryConfig 查询配置
type QueryConfig struct {
	SkipSheets []string     `toml:"skip_sheets"`
	Layout     LayoutConfig `toml:"layout"`
}

// LayoutConfig 报价表位置约定的覆盖项；未设置的沿用默认值
type LayoutConfig struct {
	HeaderRow    *int  `toml:"header_row"`
	RegionRow    *int  `toml:"region_row"`
	UnitRow      *int  `toml:"unit_row"`
	ChannelCol   *int  `toml:"channel_col"`
	WarehouseCol *int  `toml:"warehouse_col"`
	LocalWindow  *int  `toml:"local_window"`
	LocalRows    []int `toml:"local_rows"`

	TaxIncludedMarkers []string `toml:"tax_included_markers"`
	TaxExcludedMarkers []string `toml:"tax_excluded_markers"`
	WeightUnits        []string `toml:"weight_units"`
	VolumeUnits        []string `toml:"volume_units"`
	TransitMarkers     []string `toml:"transit_markers"`
	DeliveryMarkers    []string `toml:"delivery_markers"`
	StructuralLabels   []string `toml:"structural_labels"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// CacheConfig 仓库目录缓存配置
type CacheConfig struct {
	Backend   string `toml:"backend"` // memory/redis/none
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	TTL       string `toml:"ttl"` // 如 "30m"；空表示不过期
}

// RateLimitConfig 按客户端 IP 限流
type RateLimitConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			OpenBrowser: true,
		},
		Data: DataConfig{
			DataDir: "data",
			DBFile:  "freightquote.db",
		},
		Query: QueryConfig{
			SkipSheets: append([]string(nil), quote.DefaultSkipSheets...),
		},
		Regions: quote.DefaultRegionRules(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Backend: cache.BackendMemory,
			TTL:     "30m",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     10,
			Burst:   20,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 可执行文件同目录下的 config.toml
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// Load 从 path 加载配置（为空时用 DefaultPath），再应用环境变量覆盖并校验。
// 配置文件不存在时使用默认配置。
func Load(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultPath()
	}
	info := LoadConfigInfo{Path: path}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := Parse(data, cfg); err != nil {
			return nil, info, fmt.Errorf("config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, info, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, info, fmt.Errorf("config env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, info, fmt.Errorf("config validation: %w", err)
	}
	return cfg, info, nil
}

// Parse 解析 TOML 到 cfg；出现 [[regions]] 时整体替换默认区域表
func Parse(data []byte, cfg *AppConfig) error {
	defaults := cfg.Regions
	cfg.Regions = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = defaults
	}
	return nil
}

// Save 写回 config.toml
func Save(path string, cfg *AppConfig) error {
	if path == "" {
		path = DefaultPath()
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate 检查配置，汇总全部问题
func (c *AppConfig) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port (%d) must be 1-65535", c.Server.Port))
	}
	if strings.TrimSpace(c.Data.DataDir) == "" {
		errs = append(errs, "data.data_dir is required")
	}
	if _, err := c.CacheTTL(); err != nil {
		errs = append(errs, fmt.Sprintf("cache.ttl: %v", err))
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", cache.BackendMemory, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, "cache.redis_addr is required when backend is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.backend %q must be memory, redis or none", c.Cache.Backend))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, "rate_limit.rps and rate_limit.burst must be positive when enabled")
	}
	for i, r := range c.Regions {
		if strings.TrimSpace(string(r.Region)) == "" {
			errs = append(errs, fmt.Sprintf("regions[%d].name is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// CacheTTL 解析缓存过期时间
func (c *AppConfig) CacheTTL() (time.Duration, error) {
	if strings.TrimSpace(c.Cache.TTL) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must be non-negative")
	}
	return d, nil
}

// CacheOptions 转为缓存构造参数
func (c *AppConfig) CacheOptions() cache.Options {
	ttl, _ := c.CacheTTL()
	return cache.Options{
		Backend:   c.Cache.Backend,
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
		TTL:       ttl,
	}
}

// QuoteOptions 转为查询引擎配置
func (c *AppConfig) QuoteOptions() quote.Options {
	return quote.Options{
		Layout:     c.Query.Layout.apply(quote.DefaultLayout()),
		Taxonomy:   quote.NewTaxonomy(c.Regions),
		SkipSheets: c.Query.SkipSheets,
	}
}

func (lc LayoutConfig) apply(l quote.Layout) quote.Layout {
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&l.HeaderRow, lc.HeaderRow)
	setInt(&l.RegionRow, lc.RegionRow)
	setInt(&l.UnitRow, lc.UnitRow)
	setInt(&l.ChannelCol, lc.ChannelCol)
	setInt(&l.WarehouseCol, lc.WarehouseCol)
	setInt(&l.LocalWindow, lc.LocalWindow)
	if len(lc.LocalRows) > 0 {
		l.LocalRows = lc.LocalRows
	}

	tax := make(map[model.TaxType][]string, len(l.TaxMarkers))
	for k, v := range l.TaxMarkers {
		tax[k] = v
	}
	units := make(map[model.TaxType][]string, len(l.UnitMarkers))
	for k, v := range l.UnitMarkers {
		units[k] = v
	}
	if len(lc.TaxIncludedMarkers) > 0 {
		tax[model.TaxIncluded] = lc.TaxIncludedMarkers
	}
	if len(lc.TaxExcludedMarkers) > 0 {
		tax[model.TaxExcluded] = lc.TaxExcludedMarkers
	}
	if len(lc.WeightUnits) > 0 {
		units[model.TaxIncluded] = lc.WeightUnits
	}
	if len(lc.VolumeUnits) > 0 {
		units[model.TaxExcluded] = lc.VolumeUnits
	}
	l.TaxMarkers = tax
	l.UnitMarkers = units

	if len(lc.TransitMarkers) > 0 {
		l.TransitMarkers = lc.TransitMarkers
	}
	if len(lc.DeliveryMarkers) > 0 {
		l.DeliveryMarkers = lc.DeliveryMarkers
	}
	if len(lc.StructuralLabels) > 0 {
		l.StructuralLabels = lc.StructuralLabels
	}
	return l
}

// EnsureDataDir 确保数据目录存在；相对路径相对于可执行文件目录
func EnsureDataDir(cfg *AppConfig) (string, error) {
	dataDir := ResolveDataDir(cfg)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// ResolveDataDir 数据目录绝对路径
func ResolveDataDir(cfg *AppConfig) string {
	if filepath.IsAbs(cfg.Data.DataDir) {
		return cfg.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, cfg.Data.DataDir)
}

// GetDataPath 获取数据文件路径
func GetDataPath(cfg *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(cfg), subdir, filename)
}
