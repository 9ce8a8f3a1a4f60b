package quote

import "freightquote/internal/model"

// Layout 报价表的位置约定：各行/列承担的角色、标记词与搜索窗口。
// 行列号均从 0 开始。
type Layout struct {
	HeaderRow int // 表头行：税种标记、时效标记
	RegionRow int // 区域行
	UnitRow   int // 单位行：KG / CBM

	ChannelCol   int // 渠道名列，为空时以 Sheet 名代替
	WarehouseCol int // 仓库代码列

	DataStartFrom    int // 数据起始行探测范围（含）
	DataStartTo      int
	DefaultDataStart int
	DataStartMaxLen  int

	TaxMarkers  map[model.TaxType][]string
	UnitMarkers map[model.TaxType][]string

	TransitMarkers  []string
	DeliveryMarkers []string // 优先于 TransitMarkers：“派送时效”算派送列
	LocalWindow     int      // 价格列右侧局部搜索的偏移上限
	LocalRows       []int    // 局部搜索读取的行；为空时取表头行、区域行、单位行

	StructuralLabels []string // 仓库列中的非数据标签

	CatalogFrom   int
	CatalogTo     int // 不含
	CatalogMaxLen int
}

// localRows 局部时效列搜索读取的行
func (l Layout) localRows() []int {
	if len(l.LocalRows) > 0 {
		return l.LocalRows
	}
	return []int{l.HeaderRow, l.RegionRow, l.UnitRow}
}

// DefaultLayout 默认报价表约定
func DefaultLayout() Layout {
	return Layout{
		HeaderRow: 3,
		RegionRow: 4,
		UnitRow:   5,

		ChannelCol:   1,
		WarehouseCol: 2,

		DataStartFrom:    5,
		DataStartTo:      9,
		DefaultDataStart: 6,
		DataStartMaxLen:  15,

		TaxMarkers: map[model.TaxType][]string{
			model.TaxIncluded: {"含税"},
			model.TaxExcluded: {"自税"},
		},
		UnitMarkers: map[model.TaxType][]string{
			model.TaxIncluded: {"KG", "公斤"},
			model.TaxExcluded: {"CBM", "方"},
		},

		TransitMarkers:  []string{"时效"},
		DeliveryMarkers: []string{"派送", "送仓", "妥投"},
		LocalWindow:     4,

		StructuralLabels: []string{"起收量", "邮编"},

		CatalogFrom:   5,
		CatalogTo:     100,
		CatalogMaxLen: 10,
	}
}
