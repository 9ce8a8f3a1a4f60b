package importer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"freightquote/internal/model"
)

// ErrUnsupportedFormat 非 xlsx/xlsm 文件
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

const defaultCacheSize = 8

// Loader 将 Excel 报价表读成只读的 model.Workbook。
// 同一份文件（按内容 SHA-256）只解析一次。
type Loader struct {
	mu    sync.Mutex
	limit int
	cache map[string]*model.Workbook
	order []string
}

// NewLoader 创建加载器；limit<=0 时使用默认缓存容量
func NewLoader(limit int) *Loader {
	if limit <= 0 {
		limit = defaultCacheSize
	}
	return &Loader{
		limit: limit,
		cache: make(map[string]*model.Workbook, limit),
	}
}

// IsSupported 是否为可解析的文件扩展名
func IsSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

// LoadFile 从磁盘加载
func (l *Loader) LoadFile(path string) (*model.Workbook, error) {
	wb, _, err := l.loadFile(path)
	return wb, err
}

func (l *Loader) loadFile(path string) (*model.Workbook, bool, error) {
	if !IsSupported(path) {
		return nil, false, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read workbook: %w", err)
	}
	return l.LoadBytes(filepath.Base(path), data)
}

// LoadReader 从 reader 加载（上传场景）
func (l *Loader) LoadReader(name string, r io.Reader) (*model.Workbook, error) {
	if !IsSupported(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	wb, _, err := l.LoadBytes(name, data)
	return wb, err
}

// LoadBytes 解析文件内容；第二个返回值表示是否命中缓存
func (l *Loader) LoadBytes(name string, data []byte) (*model.Workbook, bool, error) {
	hash := HashBytes(data)

	l.mu.Lock()
	if wb, ok := l.cache[hash]; ok {
		l.mu.Unlock()
		return wb, true, nil
	}
	l.mu.Unlock()

	wb, err := parseWorkbook(name, data)
	if err != nil {
		return nil, false, err
	}
	wb.Hash = hash

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.cache[hash]; ok {
		return cached, true, nil
	}
	l.cache[hash] = wb
	l.order = append(l.order, hash)
	for len(l.order) > l.limit {
		delete(l.cache, l.order[0])
		l.order = l.order[1:]
	}
	return wb, false, nil
}

// HashBytes 文件内容的 SHA-256（十六进制）
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func parseWorkbook(name string, data []byte) (*model.Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", name, err)
	}
	defer f.Close()

	wb := &model.Workbook{
		ID:   uuid.NewString(),
		Name: name,
	}
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		}
		wb.Sheets = append(wb.Sheets, model.Sheet{Name: sheetName, Table: toTable(rows, textCellOf(f, sheetName))})
	}
	return wb, nil
}

// textCellOf 判断单元格是否以字符串类型存储（"007"、"1E5" 这类文本不转成数值）
func textCellOf(f *excelize.File, sheet string) func(row, col int) bool {
	return func(row, col int) bool {
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return false
		}
		typ, err := f.GetCellType(sheet, cell)
		if err != nil {
			return false
		}
		switch typ {
		case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
			return true
		}
		return false
	}
}

// toTable 转换原始行；isText 为真的单元格保留为文本
func toTable(rows [][]string, isText func(row, col int) bool) model.Table {
	t := make(model.Table, len(rows))
	for i, row := range rows {
		cells := make([]model.Cell, len(row))
		for j, v := range row {
			cells[j] = parseCell(v)
			if cells[j].Kind == model.CellNumber && isText != nil && isText(i, j) {
				cells[j] = model.Text(v)
			}
		}
		t[i] = cells
	}
	return t
}

// parseCell 原始单元格值转为类型化单元格：整数/小数为数值，空白为空，其余为文本
func parseCell(s string) model.Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return model.Cell{}
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return model.Number(float64(i))
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) && isDecimal(trimmed) {
		return model.Number(f)
	}
	return model.Text(s)
}

// isDecimal 只接受普通十进制写法（含科学计数），排除 "Inf"、"0x1p-2" 一类
func isDecimal(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return true
}
