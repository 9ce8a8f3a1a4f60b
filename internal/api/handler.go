package api

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"freightquote/internal/cache"
	"freightquote/internal/importer"
	"freightquote/internal/model"
	"freightquote/internal/quote"
	"freightquote/internal/store"
)

// ErrNoWorkbook 尚未加载报价表
var ErrNoWorkbook = errors.New("no workbook loaded")

const (
	maxUploadSize = 50 << 20
	exportTTL     = 10 * time.Minute
)

// Deps 处理器依赖
type Deps struct {
	Engine      *quote.Engine
	Coordinator *importer.Coordinator
	Store       *store.Store // 可为 nil：不记录日志
	Cache       cache.Store  // 可为 nil：不缓存
	UploadDir   string       // 为空时使用系统临时目录
	ExportDir   string
}

// Handler 报价查询 API 处理器
type Handler struct {
	engine      *quote.Engine
	coordinator *importer.Coordinator
	store       *store.Store
	cache       cache.Store
	uploadDir   string
	exportDir   string
	downloads   *exportDownloadStore

	mu       sync.RWMutex
	workbook *model.Workbook
	loadedAt time.Time
}

// NewHandler 创建处理器
func NewHandler(d Deps) *Handler {
	if d.Engine == nil {
		d.Engine = quote.NewEngine(quote.DefaultOptions())
	}
	if d.Coordinator == nil {
		d.Coordinator = importer.NewCoordinator(d.Store, importer.NewLoader(0), d.Engine)
	}
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.UploadDir == "" {
		d.UploadDir = os.TempDir()
	}
	if d.ExportDir == "" {
		d.ExportDir = os.TempDir()
	}
	return &Handler{
		engine:      d.Engine,
		coordinator: d.Coordinator,
		store:       d.Store,
		cache:       d.Cache,
		uploadDir:   d.UploadDir,
		exportDir:   d.ExportDir,
		downloads:   newExportDownloadStore(),
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	router.GET("/regions", h.ListRegions)

	// 报价表导入
	router.POST("/import", h.Import)

	// 查询
	router.GET("/warehouses", h.ListWarehouses)
	router.POST("/query", h.Query)
	router.GET("/query/export.csv", h.ExportCSV)

	// 导出
	router.POST("/export", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)

	// 日志
	router.GET("/logs/imports", h.ListImportLogs)
	router.GET("/logs/queries", h.ListQueryLogs)
}

// SetWorkbook 替换当前报价表
func (h *Handler) SetWorkbook(wb *model.Workbook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.workbook = wb
	h.loadedAt = time.Now()
}

// Workbook 当前报价表；未加载时返回 ErrNoWorkbook
func (h *Handler) Workbook() (*model.Workbook, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.workbook == nil {
		return nil, ErrNoWorkbook
	}
	return h.workbook, nil
}

func (h *Handler) loadedTime() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadedAt
}

// Coordinator 导入协调器
func (h *Handler) Coordinator() *importer.Coordinator {
	return h.coordinator
}
