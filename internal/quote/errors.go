package quote

import "fmt"

// SheetError 单个 Sheet 扫描失败；查询会跳过该 Sheet 继续处理其余 Sheet
type SheetError struct {
	Sheet string
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("scan sheet %q: %v", e.Sheet, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

// CellError 单元格内容无法读取
type CellError struct {
	Row int
	Col int
	Err error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell (%d,%d): %v", e.Row, e.Col, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}
