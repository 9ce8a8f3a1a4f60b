package quote

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"freightquote/internal/logging"
	"freightquote/internal/model"
)

// Warehouses 汇总工作簿中出现的全部仓库代码（去重、大写、排序），用于输入联想。
// 单个 Sheet 读取失败时该 Sheet 不贡献任何代码。
func (e *Engine) Warehouses(ctx context.Context, wb *model.Workbook) []string {
	if wb == nil {
		return []string{}
	}

	seen := make(map[string]struct{})
	for _, sheet := range wb.Sheets {
		if e.Skipped(sheet.Name) {
			continue
		}
		codes, err := e.sheetWarehouses(sheet)
		if err != nil {
			logging.FromContext(ctx).Warn("skip sheet in catalog", "sheet", sheet.Name, "error", err)
			continue
		}
		for _, c := range codes {
			seen[c] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) sheetWarehouses(sheet model.Sheet) (codes []string, err error) {
	defer func() {
		if p := recover(); p != nil {
			codes = nil
			err = &SheetError{Sheet: sheet.Name, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	t := sheet.Table
	end := min(e.layout.CatalogTo, t.Rows())
	for row := e.layout.CatalogFrom; row < end; row++ {
		raw, err := textAt(t, row, e.layout.WarehouseCol)
		if err != nil {
			return nil, &SheetError{Sheet: sheet.Name, Err: err}
		}
		val := strings.TrimSpace(raw)
		if isCodeLike(val, e.layout.CatalogMaxLen, e.layout.StructuralLabels) {
			codes = append(codes, strings.ToUpper(val))
		}
	}
	return codes, nil
}
