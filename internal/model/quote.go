package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Region 规范化后的提货区域
type Region string

// TaxType 税种
type TaxType string

const (
	TaxIncluded TaxType = "含税" // 含税（按重量计价）
	TaxExcluded TaxType = "自税" // 自税（按体积计价）
)

// TaxTypes 可选税种（用于前端选择）
var TaxTypes = []TaxType{TaxIncluded, TaxExcluded}

// ParseTaxType 解析税种，兼容英文别名
func ParseTaxType(s string) (TaxType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(TaxIncluded), "tax-included", "included", "incl":
		return TaxIncluded, true
	case string(TaxExcluded), "tax-excluded", "excluded", "excl":
		return TaxExcluded, true
	}
	return "", false
}

// Unavailable 缺失/无法解析时的展示占位符
const Unavailable = "-"

// Price 报价；Available=false 表示单元格为空或不是数字
type Price struct {
	Amount    float64
	Available bool
	Raw       string
}

// ParsePrice 从单元格解析价格
func ParsePrice(c Cell) Price {
	switch c.Kind {
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return Price{Raw: c.String()}
		}
		return Price{Amount: c.Num, Available: true, Raw: c.String()}
	case CellString:
		raw := strings.TrimSpace(c.Str)
		s := strings.TrimLeft(raw, "¥￥$ ")
		s = strings.ReplaceAll(s, ",", "")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Price{Raw: raw}
		}
		return Price{Amount: v, Available: true, Raw: raw}
	}
	return Price{}
}

// SortKey 排序键；不可用价格排在所有数值之后
func (p Price) SortKey() float64 {
	if !p.Available {
		return math.Inf(1)
	}
	return p.Amount
}

// String 展示文本
func (p Price) String() string {
	if !p.Available {
		return Unavailable
	}
	return strconv.FormatFloat(p.Amount, 'f', -1, 64)
}

// MarshalJSON 可用时输出数字，否则输出 "-"
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Available {
		return json.Marshal(Unavailable)
	}
	return json.Marshal(p.Amount)
}

// QuoteRecord 一条报价查询结果；每次查询新建，不持久化
type QuoteRecord struct {
	Channel         string  `json:"channel"`         // 渠道
	ChannelCategory string  `json:"channelCategory"` // 渠道分类（Sheet 名）
	TransitTime     string  `json:"transitTime"`     // 时效（展示用，首行）
	TransitTimeFull string  `json:"transitTimeFull"` // 时效（完整）
	DeliveryTime    string  `json:"deliveryTime"`    // 派送时效
	Price           Price   `json:"price"`           // 价格
	Warehouse       string  `json:"warehouse"`       // 仓库（匹配到的单元格）
	Region          Region  `json:"region"`          // 规范化区域
	TaxType         TaxType `json:"taxType"`         // 税种

	Sheet string `json:"sheet"`
	Row   int    `json:"row"`
}
