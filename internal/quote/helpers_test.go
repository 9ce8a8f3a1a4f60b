package quote

import (
	"testing"

	"freightquote/internal/model"
)

// r 构造一行：nil 为空，string 为文本，数字为数值，model.Cell 原样使用
func r(vals ...any) []model.Cell {
	out := make([]model.Cell, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
		case string:
			out[i] = model.Text(x)
		case float64:
			out[i] = model.Number(x)
		case int:
			out[i] = model.Number(float64(x))
		case model.Cell:
			out[i] = x
		default:
			panic("unsupported cell literal")
		}
	}
	return out
}

// englishLayout 英文标记的报价表约定（便于断言）
func englishLayout() Layout {
	l := DefaultLayout()
	l.TaxMarkers = map[model.TaxType][]string{
		model.TaxIncluded: {"tax-included"},
		model.TaxExcluded: {"tax-excluded"},
	}
	l.TransitMarkers = []string{"transit-time"}
	l.DeliveryMarkers = []string{"delivery-time"}
	l.StructuralLabels = []string{"minimum charge", "postal code"}
	return l
}

func englishEngine(skip ...string) *Engine {
	return NewEngine(Options{
		Layout:     englishLayout(),
		Taxonomy:   DefaultTaxonomy(),
		SkipSheets: skip,
	})
}

// expressLine 单 Sheet 场景：含税 KG 列在 3，时效列在 5，数据从第 6 行开始
func expressLine(dataRows ...[]model.Cell) model.Sheet {
	t := model.Table{
		r(),
		r(),
		r(),
		r(nil, nil, nil, "tax-included", nil, "transit-time"),
		r(nil, nil, nil, "East"),
		r(nil, nil, nil, "KG"),
	}
	t = append(t, dataRows...)
	return model.Sheet{Name: "ExpressLine", Table: t}
}

func workbook(sheets ...model.Sheet) *model.Workbook {
	return &model.Workbook{ID: "wb", Name: "test.xlsx", Sheets: sheets}
}

func channels(records []model.QuoteRecord) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Channel)
	}
	return out
}

func mustResolve(t *testing.T, res *Resolver, table model.Table, region model.Region, tax model.TaxType) RoleColumnSet {
	t.Helper()
	set, err := res.Resolve(table, region, tax)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return set
}
