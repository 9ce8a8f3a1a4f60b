package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"freightquote/internal/logging"
	"freightquote/internal/model"
	"freightquote/internal/quote"
	"freightquote/internal/store"
)

// Coordinator 导入协调器：加载报价表、逐 Sheet 汇报进度、写导入日志
type Coordinator struct {
	store  *store.Store // 可为 nil（CLI 场景不记日志）
	loader *Loader
	engine *quote.Engine
}

// NewCoordinator 创建导入协调器
func NewCoordinator(st *store.Store, loader *Loader, engine *quote.Engine) *Coordinator {
	if loader == nil {
		loader = NewLoader(0)
	}
	if engine == nil {
		engine = quote.NewEngine(quote.DefaultOptions())
	}
	return &Coordinator{
		store:  st,
		loader: loader,
		engine: engine,
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	FilePath string
	Filename string // 展示用文件名；为空时取 FilePath 的文件名
}

type importContext struct {
	ctx          context.Context
	opts         ImportOptions
	startTime    time.Time
	logID        int64
	report       *ImportReport
	progressChan chan ProgressEvent
}

// Import 执行导入，返回进度通道；最后一个事件是 done 或 error
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 32)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

// ImportSync 阻塞执行导入，返回报告
func (c *Coordinator) ImportSync(ctx context.Context, opts ImportOptions) (*ImportReport, error) {
	var (
		report *ImportReport
		err    error
	)
	for evt := range c.Import(ctx, opts) {
		switch evt.Type {
		case EventDone:
			report, _ = evt.Data.(*ImportReport)
		case EventError:
			err = fmt.Errorf("import %s: %s", opts.FilePath, evt.Message)
		}
	}
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("import %s: no report", opts.FilePath)
	}
	return report, nil
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan ProgressEvent) {
	if opts.Filename == "" {
		opts.Filename = filepath.Base(opts.FilePath)
	}
	ic := &importContext{
		ctx:          ctx,
		opts:         opts,
		startTime:    time.Now(),
		progressChan: progressChan,
		report: &ImportReport{
			Filename: opts.Filename,
			Sheets:   []SheetResult{},
		},
	}
	logger := logging.WithFields(ctx, "file", opts.Filename)

	c.sendProgress(ic, ProgressEvent{
		Type:    EventStart,
		Message: "开始导入报价表",
		Data: map[string]string{
			"filename": opts.Filename,
		},
	})

	if !IsSupported(opts.Filename) {
		c.fail(ic, fmt.Errorf("%s: %w", opts.Filename, ErrUnsupportedFormat))
		return
	}

	data, err := os.ReadFile(opts.FilePath)
	if err != nil {
		c.fail(ic, fmt.Errorf("打开文件失败: %w", err))
		return
	}
	ic.report.FileHash = HashBytes(data)

	if c.store != nil {
		id, err := c.store.CreateImportLog(opts.Filename, opts.FilePath, int64(len(data)), ic.report.FileHash)
		if err != nil {
			logger.Warn("create import log failed", "error", err)
		}
		ic.logID = id
	}

	wb, cached, err := c.loader.LoadBytes(opts.Filename, data)
	if err != nil {
		c.fail(ic, err)
		return
	}
	ic.report.Workbook = wb
	ic.report.WorkbookID = wb.ID
	ic.report.Cached = cached
	ic.report.TotalSheets = len(wb.Sheets)

	msg := fmt.Sprintf("发现 %d 个 Sheet", len(wb.Sheets))
	if cached {
		msg += "（文件未变化，复用已解析结果）"
	}
	c.sendProgress(ic, ProgressEvent{
		Type:    EventInfo,
		Message: msg,
		Data: map[string]interface{}{
			"total_sheets": len(wb.Sheets),
			"cached":       cached,
		},
	})

	for _, sheet := range wb.Sheets {
		c.processSheet(ic, sheet)
	}

	ic.report.Warehouses = len(c.engine.Warehouses(ctx, wb))
	ic.report.Duration = time.Since(ic.startTime)

	c.finishLog(ic, store.ImportStatusSuccess, "")
	logger.Info("import done",
		"workbook_id", wb.ID,
		"sheets", ic.report.LoadedSheets,
		"rows", ic.report.TotalRows,
		"cached", cached,
		"duration", ic.report.Duration)

	c.sendProgress(ic, ProgressEvent{
		Type:    EventDone,
		Message: "导入完成",
		Data:    ic.report,
	})
}

// processSheet 汇总单个 Sheet；跳过列表中的 Sheet 不参与查询
func (c *Coordinator) processSheet(ic *importContext, sheet model.Sheet) {
	result := SheetResult{
		SheetName: sheet.Name,
		Rows:      sheet.Table.Rows(),
		Columns:   sheet.Table.Width(),
	}
	switch {
	case c.engine.Skipped(sheet.Name):
		result.Status = SheetSkipped
	case result.Rows == 0:
		result.Status = SheetEmpty
	default:
		result.Status = SheetLoaded
	}
	c.recordSheetResult(ic, result)

	c.sendProgress(ic, ProgressEvent{
		Type:    EventSheet,
		Message: fmt.Sprintf("Sheet \"%s\": %s (%d 行)", sheet.Name, result.Status, result.Rows),
		Data:    result,
	})
}

func (c *Coordinator) recordSheetResult(ic *importContext, result SheetResult) {
	ic.report.Sheets = append(ic.report.Sheets, result)
	switch result.Status {
	case SheetLoaded:
		ic.report.LoadedSheets++
		ic.report.TotalRows += result.Rows
	case SheetSkipped:
		ic.report.SkippedSheets++
	}
}

func (c *Coordinator) fail(ic *importContext, err error) {
	logging.FromContext(ic.ctx).Error("import failed", "file", ic.opts.Filename, "error", err)
	c.finishLog(ic, store.ImportStatusFailed, err.Error())
	c.sendProgress(ic, ProgressEvent{
		Type:    EventError,
		Message: err.Error(),
	})
}

func (c *Coordinator) finishLog(ic *importContext, status, errMsg string) {
	if c.store == nil || ic.logID == 0 {
		return
	}
	err := c.store.UpdateImportLog(ic.logID, store.ImportLogResult{
		WorkbookID:    ic.report.WorkbookID,
		Status:        status,
		TotalSheets:   ic.report.TotalSheets,
		LoadedSheets:  ic.report.LoadedSheets,
		SkippedSheets: ic.report.SkippedSheets,
		TotalRows:     ic.report.TotalRows,
		Cached:        ic.report.Cached,
		ErrorMessage:  errMsg,
	})
	if err != nil {
		logging.FromContext(ic.ctx).Warn("update import log failed", "error", err)
	}
}

// sendProgress 发送进度事件；调用方取消后不再阻塞
func (c *Coordinator) sendProgress(ic *importContext, event ProgressEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case ic.progressChan <- event:
	case <-ic.ctx.Done():
	}
}
