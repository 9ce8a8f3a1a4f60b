package quote

import (
	"strings"

	"freightquote/internal/model"
)

// RegionRule 单个规范区域的映射规则
type RegionRule struct {
	Region  model.Region `toml:"name"`
	Aliases []string     `toml:"aliases"` // 城市/省份 -> 区域（精确映射，用于规范化输入）
	Match   []string     `toml:"match"`   // 表内区域标签包含任一词即命中
	Exclude []string     `toml:"exclude"` // 兄弟区域的词，包含则不命中
}

// Taxonomy 区域规范化与表内标签匹配
type Taxonomy struct {
	regions []model.Region
	aliases map[string]model.Region
	rules   map[model.Region]RegionRule
}

// NewTaxonomy 根据规则创建；区域自身名称总是映射到自身，不会被别名覆盖
func NewTaxonomy(rules []RegionRule) *Taxonomy {
	t := &Taxonomy{
		aliases: make(map[string]model.Region),
		rules:   make(map[model.Region]RegionRule, len(rules)),
	}
	for _, rule := range rules {
		if rule.Region == "" {
			continue
		}
		if _, dup := t.rules[rule.Region]; !dup {
			t.regions = append(t.regions, rule.Region)
		}
		t.rules[rule.Region] = rule
		for _, a := range rule.Aliases {
			if k := NormalizeLabel(a); k != "" {
				t.aliases[k] = rule.Region
			}
		}
	}
	for _, r := range t.regions {
		t.aliases[NormalizeLabel(string(r))] = r
	}
	return t
}

// DefaultRegionRules 默认区域表
func DefaultRegionRules() []RegionRule {
	return []RegionRule{
		{
			Region:  "华东",
			Aliases: []string{"上海", "江苏", "苏州", "宁波", "浙江", "杭州", "无锡", "昆山", "Shanghai", "Suzhou", "Hangzhou", "Ningbo", "Jiangsu", "Zhejiang"},
			Match:   []string{"华东", "上海", "江苏", "浙江", "苏州", "宁波", "杭州"},
		},
		{
			Region:  "华南",
			Aliases: []string{"深圳", "广州", "广东", "东莞", "佛山", "Shenzhen", "Guangzhou", "Guangdong", "Dongguan"},
			Match:   []string{"华南", "深圳", "广州", "广东", "东莞"},
		},
		{
			Region:  "青岛",
			Aliases: []string{"山东", "济南", "Qingdao", "Shandong"},
			Match:   []string{"青岛", "山东"},
		},
		{
			Region:  "福建",
			Aliases: []string{"厦门", "泉州", "Xiamen", "Fujian"},
			Match:   []string{"福建", "厦门", "泉州"},
			Exclude: []string{"福州"},
		},
		{
			Region:  "福州",
			Aliases: []string{"Fuzhou"},
			Match:   []string{"福州"},
		},
		{
			Region:  "天津",
			Aliases: []string{"北京", "河北", "Tianjin", "Beijing"},
			Match:   []string{"天津", "北京"},
		},
	}
}

// DefaultTaxonomy 使用默认区域表
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy(DefaultRegionRules())
}

// Canonicalize 将自由文本区域/城市映射为规范区域；未收录的输入原样返回
func (t *Taxonomy) Canonicalize(text string) model.Region {
	text = strings.TrimSpace(text)
	if r, ok := t.aliases[NormalizeLabel(text)]; ok {
		return r
	}
	return model.Region(text)
}

// Matches 判断表内区域标签是否属于目标区域
func (t *Taxonomy) Matches(target model.Region, label string) bool {
	label = NormalizeLabel(label)
	if label == "" {
		return false
	}
	if label == NormalizeLabel(string(target)) {
		return true
	}
	rule, ok := t.rules[target]
	if !ok || !ContainsAny(label, rule.Match) {
		return false
	}
	return !ContainsAny(label, rule.Exclude)
}

// Regions 规范区域枚举（配置顺序）
func (t *Taxonomy) Regions() []model.Region {
	out := make([]model.Region, len(t.regions))
	copy(out, t.regions)
	return out
}

// IsCanonical 是否为已收录的规范区域
func (t *Taxonomy) IsCanonical(r model.Region) bool {
	_, ok := t.rules[r]
	return ok
}
