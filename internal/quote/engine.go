package quote

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"freightquote/internal/logging"
	"freightquote/internal/model"
)

// DefaultSkipSheets 目录、说明、附加费等非报价 Sheet
var DefaultSkipSheets = []string{"首推王牌渠道", "目录", "新增网点报价栏", "附加费查询栏", "有效期核对"}

// Options 查询引擎配置
type Options struct {
	Layout     Layout
	Taxonomy   *Taxonomy
	SkipSheets []string
}

// DefaultOptions 默认配置
func DefaultOptions() Options {
	return Options{
		Layout:     DefaultLayout(),
		Taxonomy:   DefaultTaxonomy(),
		SkipSheets: DefaultSkipSheets,
	}
}

// Engine 报价查询引擎。无状态、只读扫描，可被并发调用。
type Engine struct {
	layout   Layout
	taxonomy *Taxonomy
	resolver *Resolver
	skip     map[string]struct{}
}

// NewEngine 创建查询引擎
func NewEngine(opts Options) *Engine {
	if opts.Taxonomy == nil {
		opts.Taxonomy = DefaultTaxonomy()
	}
	skip := make(map[string]struct{}, len(opts.SkipSheets))
	for _, name := range opts.SkipSheets {
		skip[strings.TrimSpace(name)] = struct{}{}
	}
	return &Engine{
		layout:   opts.Layout,
		taxonomy: opts.Taxonomy,
		resolver: NewResolver(opts.Layout, opts.Taxonomy),
		skip:     skip,
	}
}

// Taxonomy 区域表
func (e *Engine) Taxonomy() *Taxonomy {
	return e.taxonomy
}

// Resolver 列推断器
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Skipped 是否在跳过列表中
func (e *Engine) Skipped(sheet string) bool {
	_, ok := e.skip[strings.TrimSpace(sheet)]
	return ok
}

// Query 在整个工作簿中查找仓库在 (区域, 税种) 下的全部报价，按价格升序。
// 单个 Sheet 出错只会跳过该 Sheet，不影响整体结果。
func (e *Engine) Query(ctx context.Context, wb *model.Workbook, warehouse, region string, tax model.TaxType) []model.QuoteRecord {
	code := strings.ToUpper(strings.TrimSpace(warehouse))
	if wb == nil || code == "" {
		return []model.QuoteRecord{}
	}
	target := e.taxonomy.Canonicalize(region)
	logger := logging.WithFields(ctx, "warehouse", code, "region", target, "tax_type", tax)

	records := make([]model.QuoteRecord, 0)
	for _, sheet := range wb.Sheets {
		if e.Skipped(sheet.Name) {
			continue
		}
		found, err := e.scanSheet(sheet, code, target, tax)
		if err != nil {
			logger.Warn("skip sheet", "sheet", sheet.Name, "error", err)
			continue
		}
		records = append(records, found...)
	}

	SortByPrice(records)
	logger.Debug("query done", "records", len(records))
	return records
}

// scanSheet 扫描单个 Sheet；panic 在此处被拦截并转为 SheetError
func (e *Engine) scanSheet(sheet model.Sheet, code string, region model.Region, tax model.TaxType) (records []model.QuoteRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			records = nil
			err = &SheetError{Sheet: sheet.Name, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	t := sheet.Table
	cols, err := e.resolver.Resolve(t, region, tax)
	if err != nil {
		return nil, &SheetError{Sheet: sheet.Name, Err: err}
	}
	if !cols.Price.Found() {
		return nil, nil
	}

	for row := cols.DataStart; row < t.Rows(); row++ {
		raw, err := textAt(t, row, e.layout.WarehouseCol)
		if err != nil {
			return nil, &SheetError{Sheet: sheet.Name, Err: err}
		}
		cell := strings.ToUpper(strings.TrimSpace(raw))
		if cell == "" {
			continue
		}
		if cell != code && !strings.Contains(cell, code) {
			continue
		}

		rec, err := e.buildRecord(sheet, row, cols, cell, region, tax)
		if err != nil {
			return nil, &SheetError{Sheet: sheet.Name, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (e *Engine) buildRecord(sheet model.Sheet, row int, cols RoleColumnSet, warehouse string, region model.Region, tax model.TaxType) (model.QuoteRecord, error) {
	t := sheet.Table

	channel, err := textAt(t, row, e.layout.ChannelCol)
	if err != nil {
		return model.QuoteRecord{}, err
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = sheet.Name
	}

	transit, err := optionalText(t, row, cols.Transit)
	if err != nil {
		return model.QuoteRecord{}, err
	}
	delivery, err := optionalText(t, row, cols.Delivery)
	if err != nil {
		return model.QuoteRecord{}, err
	}

	rec := model.QuoteRecord{
		Channel:         channel,
		ChannelCategory: sheet.Name,
		TransitTime:     model.Unavailable,
		TransitTimeFull: model.Unavailable,
		DeliveryTime:    model.Unavailable,
		Price:           model.ParsePrice(t.At(row, int(cols.Price))),
		Warehouse:       warehouse,
		Region:          region,
		TaxType:         tax,
		Sheet:           sheet.Name,
		Row:             row,
	}
	if transit != "" {
		rec.TransitTime = firstLine(transit)
		rec.TransitTimeFull = transit
	}
	if delivery != "" {
		rec.DeliveryTime = delivery
	}
	return rec, nil
}

// optionalText 读取可选角色列；未找到或越界返回空串
func optionalText(t model.Table, row int, col Column) (string, error) {
	if !col.Found() {
		return "", nil
	}
	s, err := textAt(t, row, int(col))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// SortByPrice 按价格升序稳定排序；无法解析的价格排在最后
func SortByPrice(records []model.QuoteRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Price.SortKey() < records[j].Price.SortKey()
	})
}

// BestIndex 第一条价格可用的记录下标；没有时返回 -1
func BestIndex(records []model.QuoteRecord) int {
	for i, r := range records {
		if r.Price.Available {
			return i
		}
	}
	return -1
}

// Best 第一条价格可用的记录（用于推荐展示）
func Best(records []model.QuoteRecord) (model.QuoteRecord, bool) {
	i := BestIndex(records)
	if i < 0 {
		return model.QuoteRecord{}, false
	}
	return records[i], true
}
