package api

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"freightquote/internal/importer"
	"freightquote/internal/logging"
)

// Import 上传并加载报价表 (SSE 流式响应)
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, CodeBadRequest, "未找到上传文件")
		return
	}
	if file.Size > maxUploadSize {
		errorResponse(c, CodeFileTooLarge, "文件大小超过限制（最大 50MB）")
		return
	}
	if !importer.IsSupported(file.Filename) {
		errorResponse(c, CodeBadFile, "仅支持 .xlsx / .xlsm 格式")
		return
	}

	// 保存到上传目录，导入结束后清理
	tempPath := filepath.Join(h.uploadDir, fmt.Sprintf("import_%s%s", uuid.NewString(), filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		errorResponse(c, CodeBadFile, "保存文件失败")
		return
	}
	defer os.Remove(tempPath)

	sse, ok := startSSE(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	progressChan := h.coordinator.Import(ctx, importer.ImportOptions{
		FilePath: tempPath,
		Filename: file.Filename,
	})

	for event := range progressChan {
		if event.Type == importer.EventDone {
			if report, ok := event.Data.(*importer.ImportReport); ok && report.Workbook != nil {
				h.SetWorkbook(report.Workbook)
				// 预热仓库目录缓存
				h.warehouses(ctx, report.Workbook)
				logging.FromContext(ctx).Info("workbook replaced", "workbook_id", report.WorkbookID, "file", file.Filename)
			}
		}
		sse.send(event)
	}
}
