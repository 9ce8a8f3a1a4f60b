package importer

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

type fixtureSheet struct {
	name string
	rows [][]interface{}
}

// writeWorkbook 在临时目录生成 xlsx，按给定顺序创建 Sheet
func writeWorkbook(t *testing.T, filename string, sheets ...fixtureSheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), filename)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// quoteSheet 典型的报价 Sheet：第 4 行表头、第 5 行区域、第 6 行单位
func quoteSheet(name string, data ...[]interface{}) fixtureSheet {
	rows := [][]interface{}{
		{name + "报价"},
		{},
		{},
		{"序号", "渠道", "仓库代码", "含税", "自税", "时效"},
		{"", "", "", "华东", "华东", ""},
		{"", "", "起收量", "KG", "CBM", ""},
	}
	return fixtureSheet{name: name, rows: append(rows, data...)}
}
