package quote

import (
	"strings"

	"freightquote/internal/model"
)

// Column 推断出的列号；NoColumn 表示该 Sheet 没有此角色列
type Column int

const NoColumn Column = -1

// Found 是否找到
func (c Column) Found() bool {
	return c >= 0
}

// RoleColumnSet 某 Sheet 针对 (区域, 税种) 推断出的角色列
type RoleColumnSet struct {
	Price     Column `json:"price"`
	Transit   Column `json:"transit"`
	Delivery  Column `json:"delivery"`
	DataStart int    `json:"dataStart"`
}

type timeRole int

const (
	roleNone timeRole = iota
	roleTransit
	roleDelivery
)

// Resolver 列角色推断器
type Resolver struct {
	layout   Layout
	taxonomy *Taxonomy
}

// NewResolver 创建推断器
func NewResolver(layout Layout, taxonomy *Taxonomy) *Resolver {
	return &Resolver{layout: layout, taxonomy: taxonomy}
}

// Resolve 推断价格列、时效列、派送时效列与数据起始行。
// 找不到的角色返回 NoColumn；只有单元格数据异常时才返回错误。
func (r *Resolver) Resolve(t model.Table, region model.Region, tax model.TaxType) (RoleColumnSet, error) {
	set := RoleColumnSet{
		Price:     NoColumn,
		Transit:   NoColumn,
		Delivery:  NoColumn,
		DataStart: r.layout.DefaultDataStart,
	}

	price, err := r.priceColumn(t, region, tax)
	if err != nil {
		return set, err
	}
	set.Price = price

	set.Transit, set.Delivery, err = r.globalTimeColumns(t)
	if err != nil {
		return set, err
	}
	if !set.Transit.Found() && !set.Delivery.Found() && price.Found() {
		set.Transit, set.Delivery, err = r.localTimeColumns(t, price)
		if err != nil {
			return set, err
		}
	}

	set.DataStart, err = r.dataStartRow(t)
	if err != nil {
		return set, err
	}
	return set, nil
}

// priceColumn 从左到右找第一个同时满足 税种标记 + 区域匹配 + 单位标记 的列
func (r *Resolver) priceColumn(t model.Table, region model.Region, tax model.TaxType) (Column, error) {
	taxMarkers := r.layout.TaxMarkers[tax]
	unitMarkers := r.layout.UnitMarkers[tax]
	if len(taxMarkers) == 0 || len(unitMarkers) == 0 {
		return NoColumn, nil
	}

	width := max(rowWidth(t, r.layout.HeaderRow), rowWidth(t, r.layout.RegionRow), rowWidth(t, r.layout.UnitRow))
	for col := 0; col < width; col++ {
		header, err := labelAt(t, r.layout.HeaderRow, col)
		if err != nil {
			return NoColumn, err
		}
		if !ContainsAny(header, taxMarkers) {
			continue
		}

		label, err := textAt(t, r.layout.RegionRow, col)
		if err != nil {
			return NoColumn, err
		}
		if !r.taxonomy.Matches(region, label) {
			continue
		}

		unit, err := labelAt(t, r.layout.UnitRow, col)
		if err != nil {
			return NoColumn, err
		}
		if ContainsAny(unit, unitMarkers) {
			return Column(col), nil
		}
	}
	return NoColumn, nil
}

// globalTimeColumns 扫描表头行，各取第一个时效列与派送时效列（整张 Sheet 通用）
func (r *Resolver) globalTimeColumns(t model.Table) (transit, delivery Column, err error) {
	transit, delivery = NoColumn, NoColumn
	for col := 0; col < rowWidth(t, r.layout.HeaderRow); col++ {
		role, err := r.timeRoleAt(t, []int{r.layout.HeaderRow}, col)
		if err != nil {
			return NoColumn, NoColumn, err
		}
		switch role {
		case roleTransit:
			if !transit.Found() {
				transit = Column(col)
			}
		case roleDelivery:
			if !delivery.Found() {
				delivery = Column(col)
			}
		}
		if transit.Found() && delivery.Found() {
			break
		}
	}
	return transit, delivery, nil
}

// localTimeColumns 在价格列右侧 1..LocalWindow 的窗口内查找时效列，
// 读取表头行之外的区域行、单位行（每个价格列旁各自标注时效的报价表）。
// 时效列紧邻的下一列若是派送时效列，则以它为准。
func (r *Resolver) localTimeColumns(t model.Table, price Column) (transit, delivery Column, err error) {
	transit, delivery = NoColumn, NoColumn
	rows := r.layout.localRows()
	for off := 1; off <= r.layout.LocalWindow; off++ {
		col := int(price) + off
		role, err := r.timeRoleAt(t, rows, col)
		if err != nil {
			return NoColumn, NoColumn, err
		}
		switch role {
		case roleTransit:
			if transit.Found() {
				continue
			}
			transit = Column(col)
			next, err := r.timeRoleAt(t, rows, col+1)
			if err != nil {
				return NoColumn, NoColumn, err
			}
			if next == roleDelivery {
				delivery = Column(col + 1)
			}
		case roleDelivery:
			if !delivery.Found() {
				delivery = Column(col)
			}
		}
		if transit.Found() && delivery.Found() {
			break
		}
	}
	return transit, delivery, nil
}

// timeRoleAt 判断某列在给定行中的时效角色；任一行带派送标记即为派送列
func (r *Resolver) timeRoleAt(t model.Table, rows []int, col int) (timeRole, error) {
	role := roleNone
	for _, row := range rows {
		label, err := labelAt(t, row, col)
		if err != nil {
			return roleNone, err
		}
		switch {
		case label == "":
		case ContainsAny(label, r.layout.DeliveryMarkers):
			return roleDelivery, nil
		case ContainsAny(label, r.layout.TransitMarkers):
			role = roleTransit
		}
	}
	return role, nil
}

// dataStartRow 在探测范围内找仓库列第一个“短文本且含字母、不是结构性标签”的行
func (r *Resolver) dataStartRow(t model.Table) (int, error) {
	for row := r.layout.DataStartFrom; row <= r.layout.DataStartTo && row < t.Rows(); row++ {
		cell := t.At(row, r.layout.WarehouseCol)
		if cell.Kind != model.CellString {
			continue
		}
		s, err := textAt(t, row, r.layout.WarehouseCol)
		if err != nil {
			return r.layout.DefaultDataStart, err
		}
		if isCodeLike(strings.TrimSpace(s), r.layout.DataStartMaxLen, r.layout.StructuralLabels) {
			return row, nil
		}
	}
	return r.layout.DefaultDataStart, nil
}

// textAt 读取单元格原文；越界视为空
func textAt(t model.Table, row, col int) (string, error) {
	s, err := t.At(row, col).AsText()
	if err != nil {
		return "", &CellError{Row: row, Col: col, Err: err}
	}
	return s, nil
}

// labelAt 读取并规范化单元格
func labelAt(t model.Table, row, col int) (string, error) {
	s, err := textAt(t, row, col)
	if err != nil {
		return "", err
	}
	return NormalizeLabel(s), nil
}

func rowWidth(t model.Table, row int) int {
	if row < 0 || row >= len(t) {
		return 0
	}
	return len(t[row])
}
