package api

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"freightquote/internal/exporter"
	"freightquote/internal/logging"
	"freightquote/internal/quote"
)

// ExportRequest 导出请求
type ExportRequest struct {
	QueryRequest
	Format string `json:"format" form:"format"` // csv / xlsx
}

// ExportResponse 导出结果
type ExportResponse struct {
	Token       string `json:"token"`
	DownloadURL string `json:"downloadUrl"`
	Filename    string `json:"filename"`
	Total       int    `json:"total"`
	ExpiresAt   string `json:"expiresAt"`
}

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Export 导出查询结果，返回一次性下载地址
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, CodeBadRequest, "参数错误")
		return
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		errorResponse(c, CodeBadRequest, "导出格式无效（可选 csv / xlsx）")
		return
	}

	resp, err := h.buildExport(c.Request.Context(), req.QueryRequest, format, nil)
	if err != nil {
		writeExportError(c, err)
		return
	}
	success(c, resp)
}

// ExportStream 导出查询结果（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, CodeBadRequest, "参数错误")
		return
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		errorResponse(c, CodeBadRequest, "导出格式无效（可选 csv / xlsx）")
		return
	}

	sse, ok := startSSE(c)
	if !ok {
		return
	}
	sse.send(exportProgressEvent{
		Type:      "start",
		Message:   "开始导出",
		Data:      map[string]any{"format": format},
		Timestamp: time.Now(),
	})

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		sse.send(exportProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      map[string]any{"percent": p.Percent},
			Timestamp: time.Now(),
		})
	}

	resp, err := h.buildExport(c.Request.Context(), req.QueryRequest, format, progressFn)
	if err != nil {
		sse.send(exportProgressEvent{
			Type:      "error",
			Message:   "导出失败: " + err.Error(),
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
		return
	}

	sse.send(exportProgressEvent{
		Type:      "done",
		Message:   "导出完成",
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// buildExport 执行查询并把结果写入导出目录
func (h *Handler) buildExport(ctx context.Context, req QueryRequest, format exporter.Format, progress func(exporter.ProgressEvent)) (*ExportResponse, error) {
	result, err := h.runQuery(ctx, req)
	if err != nil {
		return nil, err
	}

	q := exporter.Query{Warehouse: result.Warehouse, Region: result.Region, TaxType: result.TaxType}
	best := quote.BestIndex(result.Records)

	f, err := os.CreateTemp(h.exportDir, fmt.Sprintf("export_*.%s", format))
	if err != nil {
		return nil, fmt.Errorf("创建导出文件失败: %w", err)
	}
	path := f.Name()

	writeErr := exporter.Write(f, format, result.Records, exporter.XLSXOptions{Query: q, Best: best, Progress: progress})
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		removeFile(path)
		return nil, fmt.Errorf("写入导出文件失败: %w", err)
	}

	filename := exporter.Filename(q, format)
	token, expiresAt := h.downloads.put(path, filename, format, exportTTL)
	logging.FromContext(ctx).Info("export ready", "file", filename, "records", len(result.Records))

	return &ExportResponse{
		Token:       token,
		DownloadURL: "/api/export/download/" + token,
		Filename:    filename,
		Total:       len(result.Records),
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func writeExportError(c *gin.Context, err error) {
	var pe *paramError
	if errors.As(err, &pe) || errors.Is(err, ErrNoWorkbook) {
		writeQueryError(c, err)
		return
	}
	errorResponse(c, CodeExportFailed, err.Error())
}

// DownloadExport 下载导出文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		errorResponse(c, CodeBadRequest, "缺少 token")
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		errorResponse(c, CodeExportFailed, "下载链接已失效")
		return
	}
	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		errorResponse(c, CodeExportFailed, "导出文件不存在")
		return
	}

	c.Header("Content-Disposition", exporter.ContentDisposition(item.filename, item.format))
	c.Header("Content-Type", item.format.ContentType())
	c.File(item.filePath)

	h.downloads.delete(token)
	removeFile(item.filePath)
}

func removeFile(path string) {
	_ = os.Remove(path)
}
