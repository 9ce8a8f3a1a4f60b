package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"freightquote/internal/model"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tax := DefaultTaxonomy()
	tests := []struct {
		in   string
		want model.Region
	}{
		{"上海", "华东"},
		{"苏州", "华东"},
		{"杭州", "华东"},
		{"Shanghai", "华东"},
		{" suzhou ", "华东"},
		{"HANGZHOU", "华东"},
		{"深圳", "华南"},
		{"厦门", "福建"},
		{"福州", "福州"},
		{"福建", "福建"},
		{"北京", "天津"},
		{"华东", "华东"},
		{"拉斯维加斯", "拉斯维加斯"},
		{"  Mars  ", "Mars"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tax.Canonicalize(tt.in), tt.in)
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	t.Parallel()

	tax := DefaultTaxonomy()
	for _, in := range []string{"上海", "Fuzhou", "深圳", "unknown"} {
		once := tax.Canonicalize(in)
		assert.Equal(t, once, tax.Canonicalize(string(once)))
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	tax := DefaultTaxonomy()
	tests := []struct {
		target model.Region
		label  string
		want   bool
	}{
		{"华东", "华东", true},
		{"华东", "华东（上海/宁波）", true},
		{"华东", "上海 / 苏州", true},
		{"华东", "华南", false},
		{"福建", "福建", true},
		{"福建", "福建（厦门）", true},
		{"福建", "福建福州", false},
		{"福州", "福建福州", true},
		{"福州", "福建", false},
		{"East", "east", true},
		{"East", "Eastern", false},
		{"华东", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tax.Matches(tt.target, tt.label), "%s vs %s", tt.target, tt.label)
	}
}

func TestNewTaxonomy_RegionNameBeatsAlias(t *testing.T) {
	t.Parallel()

	tax := NewTaxonomy([]RegionRule{
		{Region: "A", Aliases: []string{"B"}},
		{Region: "B"},
	})
	assert.Equal(t, model.Region("B"), tax.Canonicalize("B"))
	assert.Equal(t, []model.Region{"A", "B"}, tax.Regions())
	assert.True(t, tax.IsCanonical("A"))
	assert.False(t, tax.IsCanonical("C"))
}
