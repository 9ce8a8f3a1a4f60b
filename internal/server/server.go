package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"freightquote/internal/api"
	"freightquote/internal/cache"
	"freightquote/internal/config"
	"freightquote/internal/importer"
	"freightquote/internal/quote"
	"freightquote/internal/store"
)

// Server HTTP服务器
type Server struct {
	cfg     *config.AppConfig
	dataDir string
	router  *gin.Engine
	store   *store.Store
	cache   cache.Store
	api     *api.Handler
	http    *http.Server
}

// NewServer 创建服务器：初始化数据目录、SQLite 日志库、仓库目录缓存与查询引擎
func NewServer(ctx context.Context, cfg *config.AppConfig) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	st, err := store.New(filepath.Join(dataDir, cfg.Data.DBFile))
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	cacheStore, err := cache.New(ctx, cfg.CacheOptions())
	if err != nil {
		// redis 不可用时退回进程内缓存
		slog.Warn("catalog cache unavailable, falling back to memory", "backend", cfg.Cache.Backend, "error", err)
		ttl, _ := cfg.CacheTTL()
		cacheStore = cache.NewMemory(ttl)
	}

	engine := quote.NewEngine(cfg.QuoteOptions())
	handler := api.NewHandler(api.Deps{
		Engine:      engine,
		Coordinator: importer.NewCoordinator(st, importer.NewLoader(0), engine),
		Store:       st,
		Cache:       cacheStore,
		UploadDir:   filepath.Join(dataDir, "uploads"),
		ExportDir:   filepath.Join(dataDir, "exports"),
	})

	s := &Server{
		cfg:     cfg,
		dataDir: dataDir,
		store:   st,
		cache:   cacheStore,
		api:     handler,
		router:  NewRouter(handler, cfg.RateLimit),
	}
	return s, nil
}

// NewRouter 组装中间件与路由
func NewRouter(h *api.Handler, rl config.RateLimitConfig) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies(nil)

	router.Use(requestID())
	router.Use(requestLogger())
	router.Use(recovery())
	router.Use(cors())
	if rl.Enabled && rl.RPS > 0 {
		router.Use(newIPRateLimiter(rl.RPS, rl.Burst).middleware())
	}

	apiGroup := router.Group("/api")
	{
		h.RegisterRoutes(apiGroup)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.NoRoute(func(c *gin.Context) {
		api.AbortWithError(c, http.StatusNotFound, http.StatusNotFound, "接口不存在")
	})
	return router
}

// LoadDefaultWorkbook 启动时加载配置中的默认报价表；未配置时直接返回
func (s *Server) LoadDefaultWorkbook(ctx context.Context) error {
	path := s.cfg.Data.DefaultWorkbook
	if path == "" {
		return nil
	}
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(s.dataDir, path)
		}
	}

	report, err := s.api.Coordinator().ImportSync(ctx, importer.ImportOptions{FilePath: path})
	if err != nil {
		return err
	}
	s.api.SetWorkbook(report.Workbook)
	slog.Info("default workbook loaded",
		"file", report.Filename,
		"sheets", report.LoadedSheets,
		"warehouses", report.Warehouses)
	return nil
}

// Run 启动服务器；Shutdown 后返回 nil
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// SSE 长连接，不设置 WriteTimeout
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭并释放存储与缓存
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		errs = append(errs, s.http.Shutdown(ctx))
	}
	errs = append(errs, s.cache.Close(), s.store.Close())
	return errors.Join(errs...)
}

// Router 底层路由（测试用）
func (s *Server) Router() *gin.Engine {
	return s.router
}

// DataDir 数据目录
func (s *Server) DataDir() string {
	return s.dataDir
}
