package api

import (
	"github.com/gin-gonic/gin"

	"freightquote/internal/logging"
	"freightquote/internal/model"
	"freightquote/internal/store"
)

// WorkbookInfo 当前报价表概要
type WorkbookInfo struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Hash     string            `json:"hash"`
	LoadedAt string            `json:"loadedAt"`
	Sheets   []model.SheetInfo `json:"sheets"`
}

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized bool             `json:"initialized"` // 是否已加载报价表
	Workbook    *WorkbookInfo    `json:"workbook,omitempty"`
	LastImport  *store.ImportLog `json:"lastImport,omitempty"`
	QueryCount  int              `json:"queryCount"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{}

	if wb, err := h.Workbook(); err == nil {
		resp.Initialized = true
		resp.Workbook = &WorkbookInfo{
			ID:       wb.ID,
			Name:     wb.Name,
			Hash:     wb.Hash,
			LoadedAt: h.loadedTime().Format("2006-01-02 15:04:05"),
			Sheets:   wb.Summary(),
		}
	}

	if h.store != nil {
		logger := logging.FromContext(c.Request.Context())
		last, err := h.store.LatestImportLog()
		if err != nil {
			logger.Warn("read latest import log failed", "error", err)
		}
		resp.LastImport = last

		n, err := h.store.CountQueryLogs()
		if err != nil {
			logger.Warn("count query logs failed", "error", err)
		}
		resp.QueryCount = n
	}

	success(c, resp)
}

// RegionsResponse 可选区域与税种
type RegionsResponse struct {
	Regions  []model.Region  `json:"regions"`
	TaxTypes []model.TaxType `json:"taxTypes"`
}

// ListRegions 规范区域与税种列表
// GET /api/regions
func (h *Handler) ListRegions(c *gin.Context) {
	success(c, RegionsResponse{
		Regions:  h.engine.Taxonomy().Regions(),
		TaxTypes: model.TaxTypes,
	})
}
