package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"freightquote/internal/model"
)

// ErrUnsupportedFormat 未知的导出格式
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format 导出格式
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat 解析导出格式，空串默认 csv
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
}

// ContentType HTTP 响应类型
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Columns 导出列
var Columns = []string{"渠道", "时效", "派送时效", "价格", "渠道分类"}

const sheetName = "报价查询"

// Query 导出对应的查询条件，用于生成文件名
type Query struct {
	Warehouse string
	Region    model.Region
	TaxType   model.TaxType
}

// Filename 报价查询_{仓库}_{区域}_{税种}.{csv|xlsx}
func Filename(q Query, format Format) string {
	return fmt.Sprintf("报价查询_%s_%s_%s.%s",
		safeName(strings.ToUpper(strings.TrimSpace(q.Warehouse))),
		safeName(string(q.Region)),
		safeName(string(q.TaxType)),
		format)
}

var unsafeFilenameChars = strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "-", "<", "-", ">", "-", "|", "-")

func safeName(s string) string {
	return unsafeFilenameChars.Replace(strings.TrimSpace(s))
}

// ContentDisposition 下载响应头；ASCII 兜底名 + RFC 5987 的 UTF-8 文件名
func ContentDisposition(filename string, format Format) string {
	return fmt.Sprintf("attachment; filename=\"quote-export.%s\"; filename*=UTF-8''%s", format, url.PathEscape(filename))
}

// Row 单条记录的导出值
func Row(rec model.QuoteRecord) []string {
	return []string{
		rec.Channel,
		rec.TransitTime,
		rec.DeliveryTime,
		rec.Price.String(),
		rec.ChannelCategory,
	}
}

// WriteCSV 输出带 BOM 的 UTF-8 CSV（Excel 直接打开不乱码）
func WriteCSV(w io.Writer, records []model.QuoteRecord) error {
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(Row(rec)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// XLSXOptions Excel 导出选项
type XLSXOptions struct {
	Query    Query
	Best     int // 推荐行下标（records 内），<0 表示无
	Progress func(ProgressEvent)
}

// BuildXLSX 生成单 Sheet 的 Excel；推荐行高亮，价格按数值写入
func BuildXLSX(records []model.QuoteRecord, opts XLSXOptions) (*excelize.File, error) {
	f := excelize.NewFile()
	reportProgress(opts.Progress, 0, "创建工作簿")

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	bestStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#166534"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCFCE7"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create highlight style: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, headerStyle); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, rec := range records {
		row := i + 2
		values := []interface{}{rec.Channel, rec.TransitTime, rec.DeliveryTime, priceValue(rec.Price), rec.ChannelCategory}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if i == opts.Best {
			if err := f.SetRowStyle(sheetName, row, row, bestStyle); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("failed to highlight row %d: %w", row, err)
			}
		}
		if len(records) > 0 {
			reportProgress(opts.Progress, 10+80*(i+1)/len(records), "写入报价")
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 28)
	_ = f.SetColWidth(sheetName, "B", "C", 18)
	_ = f.SetColWidth(sheetName, "D", "D", 12)
	_ = f.SetColWidth(sheetName, "E", "E", 20)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	reportProgress(opts.Progress, 100, "完成")
	return f, nil
}

// WriteXLSX 生成 Excel 并写入 w
func WriteXLSX(w io.Writer, records []model.QuoteRecord, opts XLSXOptions) error {
	f, err := BuildXLSX(records, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// Write 按格式输出
func Write(w io.Writer, format Format, records []model.QuoteRecord, opts XLSXOptions) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records, opts)
	}
	return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
}

func priceValue(p model.Price) interface{} {
	if !p.Available {
		return model.Unavailable
	}
	return p.Amount
}
