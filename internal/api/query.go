package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"freightquote/internal/exporter"
	"freightquote/internal/logging"
	"freightquote/internal/model"
	"freightquote/internal/quote"
	"freightquote/internal/store"
)

// QueryRequest 查询请求
type QueryRequest struct {
	Warehouse string `json:"warehouse" form:"warehouse"`
	Region    string `json:"region" form:"region"`
	TaxType   string `json:"taxType" form:"taxType"`
}

// QueryResponse 查询结果
type QueryResponse struct {
	Warehouse   string              `json:"warehouse"`
	Region      model.Region        `json:"region"`
	TaxType     model.TaxType       `json:"taxType"`
	KnownRegion bool                `json:"knownRegion"` // 区域是否在规范区域表中
	Total       int                 `json:"total"`
	Records     []model.QuoteRecord `json:"records"`
	Best        *model.QuoteRecord  `json:"best,omitempty"` // 最低可用报价
}

// paramError 请求参数错误（区别于基础设施错误）
type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

// runQuery 执行一次查询并写查询日志
func (h *Handler) runQuery(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	wb, err := h.Workbook()
	if err != nil {
		return nil, err
	}
	tax, ok := model.ParseTaxType(req.TaxType)
	if !ok {
		return nil, &paramError{msg: fmt.Sprintf("税种无效: %q（可选 含税 / 自税）", req.TaxType)}
	}

	start := time.Now()
	taxonomy := h.engine.Taxonomy()
	region := taxonomy.Canonicalize(req.Region)
	warehouse := strings.ToUpper(strings.TrimSpace(req.Warehouse))

	records := h.engine.Query(ctx, wb, warehouse, req.Region, tax)
	resp := &QueryResponse{
		Warehouse:   warehouse,
		Region:      region,
		TaxType:     tax,
		KnownRegion: taxonomy.IsCanonical(region),
		Total:       len(records),
		Records:     records,
	}
	if best, ok := quote.Best(records); ok {
		resp.Best = &best
	}

	logger := logging.WithFields(ctx, "warehouse", warehouse, "region", region, "tax_type", tax)
	if !resp.KnownRegion {
		logger.Warn("region not in taxonomy", "input", req.Region)
	}
	logger.Info("query", "records", len(records), "duration", time.Since(start))

	h.logQuery(ctx, wb, resp, time.Since(start))
	return resp, nil
}

func (h *Handler) logQuery(ctx context.Context, wb *model.Workbook, resp *QueryResponse, d time.Duration) {
	if h.store == nil {
		return
	}
	q := store.QueryLog{
		RequestID:   logging.RequestID(ctx),
		WorkbookID:  wb.ID,
		Warehouse:   resp.Warehouse,
		Region:      string(resp.Region),
		TaxType:     string(resp.TaxType),
		KnownRegion: resp.KnownRegion,
		RecordCount: resp.Total,
		DurationMs:  d.Milliseconds(),
	}
	if resp.Best != nil {
		amount := resp.Best.Price.Amount
		q.BestChannel = resp.Best.Channel
		q.BestPrice = &amount
	}
	if _, err := h.store.InsertQueryLog(q); err != nil {
		logging.FromContext(ctx).Warn("insert query log failed", "error", err)
	}
}

// writeQueryError 将查询错误映射为响应
func writeQueryError(c *gin.Context, err error) {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		errorResponse(c, CodeBadRequest, pe.msg)
	case errors.Is(err, ErrNoWorkbook):
		errorResponse(c, CodeNoWorkbook, "请先导入报价表")
	default:
		errorResponse(c, CodeInternalError, err.Error())
	}
}

// Query 报价查询
// POST /api/query
func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, CodeBadRequest, "参数错误")
		return
	}
	resp, err := h.runQuery(c.Request.Context(), req)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	success(c, resp)
}

// ExportCSV 直接下载查询结果 CSV
// GET /api/query/export.csv?warehouse=&region=&taxType=
func (h *Handler) ExportCSV(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		errorResponse(c, CodeBadRequest, "参数错误")
		return
	}
	resp, err := h.runQuery(c.Request.Context(), req)
	if err != nil {
		writeQueryError(c, err)
		return
	}

	filename := exporter.Filename(exporter.Query{Warehouse: resp.Warehouse, Region: resp.Region, TaxType: resp.TaxType}, exporter.FormatCSV)
	c.Header("Content-Disposition", exporter.ContentDisposition(filename, exporter.FormatCSV))
	c.Header("Content-Type", exporter.FormatCSV.ContentType())
	c.Status(http.StatusOK)
	if err := exporter.WriteCSV(c.Writer, resp.Records); err != nil {
		logging.FromContext(c.Request.Context()).Error("write csv failed", "error", err)
	}
}

// WarehousesResponse 仓库目录
type WarehousesResponse struct {
	Warehouses []string `json:"warehouses"`
	Cached     bool     `json:"cached"`
}

// ListWarehouses 当前报价表中的全部仓库代码（按工作簿哈希缓存）
// GET /api/warehouses
func (h *Handler) ListWarehouses(c *gin.Context) {
	ctx := c.Request.Context()
	wb, err := h.Workbook()
	if err != nil {
		writeQueryError(c, err)
		return
	}

	codes, cached := h.warehouses(ctx, wb)
	success(c, WarehousesResponse{Warehouses: codes, Cached: cached})
}

// warehouses 读缓存，未命中或缓存故障时重新扫描
func (h *Handler) warehouses(ctx context.Context, wb *model.Workbook) ([]string, bool) {
	logger := logging.FromContext(ctx)

	codes, ok, err := h.cache.GetWarehouses(ctx, wb.Hash)
	if err != nil {
		logger.Warn("catalog cache read failed, rescanning", "error", err)
	}
	if ok && err == nil {
		return codes, true
	}

	codes = h.engine.Warehouses(ctx, wb)
	if err := h.cache.SetWarehouses(ctx, wb.Hash, codes); err != nil {
		logger.Warn("catalog cache write failed", "error", err)
	}
	return codes, false
}
