package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

func limitParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || n <= 0 {
		return 50
	}
	return min(n, 500)
}

// ListImportLogs 最近的导入记录
// GET /api/logs/imports?limit=50
func (h *Handler) ListImportLogs(c *gin.Context) {
	if h.store == nil {
		errorResponse(c, CodeLogsDisabled, "未启用日志存储")
		return
	}
	logs, err := h.store.ListImportLogs(limitParam(c))
	if err != nil {
		errorResponse(c, CodeInternalError, "读取导入日志失败: "+err.Error())
		return
	}
	success(c, logs)
}

// ListQueryLogs 最近的查询记录
// GET /api/logs/queries?limit=50
func (h *Handler) ListQueryLogs(c *gin.Context) {
	if h.store == nil {
		errorResponse(c, CodeLogsDisabled, "未启用日志存储")
		return
	}
	logs, err := h.store.ListQueryLogs(limitParam(c))
	if err != nil {
		errorResponse(c, CodeInternalError, "读取查询日志失败: "+err.Error())
		return
	}
	success(c, logs)
}
