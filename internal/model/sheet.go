package model

import (
	"fmt"
	"strconv"
	"strings"
)

// CellKind 单元格类型
type CellKind uint8

const (
	CellEmpty  CellKind = iota // 空
	CellString                 // 文本
	CellNumber                 // 数值
)

// Cell 工作表单元格（无类型网格中的一个值）
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
}

// Text 构造文本单元格
func Text(s string) Cell {
	return Cell{Kind: CellString, Str: s}
}

// Number 构造数值单元格
func Number(v float64) Cell {
	return Cell{Kind: CellNumber, Num: v}
}

// IsEmpty 单元格是否为空（含空白文本）
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellString:
		return strings.TrimSpace(c.Str) == ""
	}
	return false
}

// String 返回单元格的文本形式；数值按最短表示输出（12.0 -> "12"）
func (c Cell) String() string {
	s, _ := c.AsText()
	return s
}

// AsText 返回单元格文本；未知类型视为数据错误
func (c Cell) AsText() (string, error) {
	switch c.Kind {
	case CellEmpty:
		return "", nil
	case CellString:
		return c.Str, nil
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported cell kind %d", c.Kind)
	}
}

// Table 一个 Sheet 的原始二维网格，行列均从 0 开始，允许行长度不一致
type Table [][]Cell

// Rows 行数
func (t Table) Rows() int {
	return len(t)
}

// At 读取单元格；越界返回空单元格
func (t Table) At(row, col int) Cell {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return Cell{}
	}
	return t[row][col]
}

// Width 所有行中最大的列数
func (t Table) Width() int {
	w := 0
	for _, r := range t {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Sheet 工作表
type Sheet struct {
	Name  string `json:"name"`
	Table Table  `json:"-"`
}

// Workbook 已加载的报价表；加载后只读
type Workbook struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Hash   string  `json:"hash"`
	Sheets []Sheet `json:"sheets"`
}

// SheetNames 按原文件顺序返回 Sheet 名
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// SheetInfo Sheet 概要
type SheetInfo struct {
	Name     string `json:"name"`
	RowCount int    `json:"rowCount"`
}

// Summary 返回各 Sheet 的行数概要
func (w *Workbook) Summary() []SheetInfo {
	out := make([]SheetInfo, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		out = append(out, SheetInfo{Name: s.Name, RowCount: s.Table.Rows()})
	}
	return out
}
