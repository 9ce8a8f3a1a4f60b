package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// sseWriter 以 "data: {json}\n\n" 格式推送事件
type sseWriter struct {
	c       *gin.Context
	flusher http.Flusher
}

// startSSE 写入 SSE 响应头；不支持 Flush 时返回 false
func startSSE(c *gin.Context) (*sseWriter, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		errorResponse(c, CodeInternalError, "不支持流式响应")
		return nil, false
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	return &sseWriter{c: c, flusher: flusher}, true
}

func (w *sseWriter) send(event interface{}) {
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w.c.Writer, "data: %s\n\n", b)
	w.flusher.Flush()
}
