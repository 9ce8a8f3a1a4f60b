package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务错误码
const (
	CodeOK            = 0
	CodeBadRequest    = 1001 // 参数错误
	CodeBadFile       = 1002 // 文件格式/读取错误
	CodeFileTooLarge  = 1003
	CodeRateLimited   = 1004
	CodeNoWorkbook    = 2001 // 尚未导入报价表
	CodeExportFailed  = 3001
	CodeLogsDisabled  = 5001
	CodeInternalError = 5000
)

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// AbortWithError 中间件使用：写入错误响应并中止
func AbortWithError(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Message: message,
	})
}
