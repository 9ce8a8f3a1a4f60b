package importer

import (
	"time"

	"freightquote/internal/model"
)

// 事件类型
const (
	EventStart   = "start"
	EventInfo    = "info"
	EventSheet   = "sheet"
	EventWarning = "warning"
	EventDone    = "done"
	EventError   = "error"
)

// Sheet 处理状态
const (
	SheetLoaded  = "loaded"
	SheetSkipped = "skipped"
	SheetEmpty   = "empty"
)

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/sheet/warning/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// SheetResult 单个 Sheet 的加载结果
type SheetResult struct {
	SheetName string `json:"sheetName"`
	Status    string `json:"status"` // loaded/skipped/empty
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
}

// ImportReport 导入报告
type ImportReport struct {
	Filename      string        `json:"filename"`
	FileHash      string        `json:"fileHash"`
	WorkbookID    string        `json:"workbookId"`
	Cached        bool          `json:"cached"` // 同一文件已加载过，直接复用
	TotalSheets   int           `json:"totalSheets"`
	LoadedSheets  int           `json:"loadedSheets"`
	SkippedSheets int           `json:"skippedSheets"`
	TotalRows     int           `json:"totalRows"`
	Warehouses    int           `json:"warehouses"`
	Duration      time.Duration `json:"duration"`
	Sheets        []SheetResult `json:"sheets"`

	Workbook *model.Workbook `json:"-"`
}
