package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightquote/internal/model"
)

func TestPriceColumn(t *testing.T) {
	t.Parallel()

	res := NewResolver(englishLayout(), DefaultTaxonomy())

	tests := []struct {
		name   string
		table  model.Table
		region model.Region
		tax    model.TaxType
		want   Column
	}{
		{
			name: "first qualifying column wins",
			table: model.Table{r(), r(), r(),
				r(nil, nil, nil, "tax-included", "tax-included"),
				r(nil, nil, nil, "East", "East"),
				r(nil, nil, nil, "KG", "KG"),
			},
			region: "East", tax: model.TaxIncluded, want: 3,
		},
		{
			name: "unit must pair with tax type",
			table: model.Table{r(), r(), r(),
				r(nil, nil, nil, "tax-excluded", "tax-excluded"),
				r(nil, nil, nil, "East", "East"),
				r(nil, nil, nil, "KG", "CBM"),
			},
			region: "East", tax: model.TaxExcluded, want: 4,
		},
		{
			name: "all three conditions required",
			table: model.Table{r(), r(), r(),
				r(nil, nil, nil, "tax-included", "other", "tax-included"),
				r(nil, nil, nil, "West", "East", "East"),
				r(nil, nil, nil, "KG", "KG", "CBM"),
			},
			region: "East", tax: model.TaxIncluded, want: NoColumn,
		},
		{
			name:   "short table",
			table:  model.Table{r()},
			region: "East", tax: model.TaxIncluded, want: NoColumn,
		},
		{
			name: "markers from another layout are ignored",
			table: model.Table{r(), r(), r(),
				r(nil, nil, nil, "含税价"),
				r(nil, nil, nil, "上海 / 苏州"),
				r(nil, nil, nil, "ｋｇ"),
			},
			region: "华东", tax: model.TaxIncluded, want: NoColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := res.priceColumn(tt.table, tt.region, tt.tax)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceColumn_ChineseMarkers(t *testing.T) {
	t.Parallel()

	res := NewResolver(DefaultLayout(), DefaultTaxonomy())
	table := model.Table{r(), r(), r(),
		r(nil, nil, nil, "含税价", "自税价"),
		r(nil, nil, nil, "上海 / 苏州", "上海 / 苏州"),
		r(nil, nil, nil, "ｋｇ", "CBM"),
	}

	got, err := res.priceColumn(table, "华东", model.TaxIncluded)
	require.NoError(t, err)
	assert.Equal(t, Column(3), got)

	got, err = res.priceColumn(table, "华东", model.TaxExcluded)
	require.NoError(t, err)
	assert.Equal(t, Column(4), got)
}

func TestGlobalTimeColumnsTakePriority(t *testing.T) {
	t.Parallel()

	res := NewResolver(englishLayout(), DefaultTaxonomy())
	table := model.Table{r(), r(), r(),
		r(nil, nil, nil, "tax-included", "transit-time", nil, nil, nil, nil, "transit-time (all)", "delivery-time"),
		r(nil, nil, nil, "East"),
		r(nil, nil, nil, "KG"),
	}

	set := mustResolve(t, res, table, "East", model.TaxIncluded)
	assert.Equal(t, Column(3), set.Price)
	assert.Equal(t, Column(4), set.Transit)
	assert.Equal(t, Column(10), set.Delivery)
}

func TestLocalTimeColumnsFallback(t *testing.T) {
	t.Parallel()

	res := NewResolver(englishLayout(), DefaultTaxonomy())

	tests := []struct {
		name         string
		header       []model.Cell
		wantTransit  Column
		wantDelivery Column
	}{
		{
			name:         "transit two columns right, delivery next to it",
			header:       r(nil, nil, nil, "tax-included", "note", "transit-time", "delivery-time"),
			wantTransit:  5,
			wantDelivery: 6,
		},
		{
			name:         "delivery right after transit at window edge",
			header:       r(nil, nil, nil, "tax-included", nil, nil, nil, "transit-time", "delivery-time"),
			wantTransit:  7,
			wantDelivery: 8,
		},
		{
			name:         "outside window",
			header:       r(nil, nil, nil, "tax-included", nil, nil, nil, nil, "transit-time"),
			wantTransit:  NoColumn,
			wantDelivery: NoColumn,
		},
		{
			name:         "delivery after transit replaces earlier delivery",
			header:       r(nil, nil, nil, "tax-included", "delivery-time", "transit-time", "delivery-time"),
			wantTransit:  5,
			wantDelivery: 6,
		},
		{
			name:         "delivery only",
			header:       r(nil, nil, nil, "tax-included", "delivery-time"),
			wantTransit:  NoColumn,
			wantDelivery: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transit, delivery, err := res.localTimeColumns(model.Table{r(), r(), r(), tt.header}, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTransit, transit)
			assert.Equal(t, tt.wantDelivery, delivery)
		})
	}
}

// 每个价格列旁各自在区域行标注“时效”，表头行没有时效标记
func perRegionTransitTable() model.Table {
	return model.Table{r(), r(), r(),
		r(nil, "渠道", "仓库", "含税", nil, "含税", nil),
		r(nil, nil, nil, "华东", "时效", "华南", "时效"),
		r(nil, nil, nil, "KG", "天", "KG", "天"),
		r(nil, "快船A", "ONT8", 10, "10-12天", 11, "12-15天"),
	}
}

func TestResolve_LocalTimeColumnsFromRegionRow(t *testing.T) {
	t.Parallel()

	res := NewResolver(DefaultLayout(), DefaultTaxonomy())

	set := mustResolve(t, res, perRegionTransitTable(), "华南", model.TaxIncluded)
	assert.Equal(t, Column(5), set.Price)
	assert.Equal(t, Column(6), set.Transit)
	assert.Equal(t, NoColumn, set.Delivery)
	assert.Equal(t, 6, set.DataStart)

	set = mustResolve(t, res, perRegionTransitTable(), "华东", model.TaxIncluded)
	assert.Equal(t, Column(3), set.Price)
	assert.Equal(t, Column(4), set.Transit)
}

func TestLocalTimeColumns_CustomRows(t *testing.T) {
	t.Parallel()

	layout := DefaultLayout()
	layout.LocalRows = []int{layout.HeaderRow}
	res := NewResolver(layout, DefaultTaxonomy())

	set := mustResolve(t, res, perRegionTransitTable(), "华南", model.TaxIncluded)
	assert.Equal(t, Column(5), set.Price)
	assert.Equal(t, NoColumn, set.Transit)
}

func TestGlobalTimeColumnsSharedAcrossRegions(t *testing.T) {
	t.Parallel()

	table := model.Table{r(), r(), r(),
		r(nil, nil, nil, "tax-included", "transit", "tax-included", "transit"),
		r(nil, nil, nil, "East", nil, "South"),
		r(nil, nil, nil, "KG", nil, "KG"),
	}
	l := englishLayout()
	l.TransitMarkers = []string{"transit"}
	res := NewResolver(l, DefaultTaxonomy())

	east := mustResolve(t, res, table, "East", model.TaxIncluded)
	assert.Equal(t, Column(3), east.Price)
	assert.Equal(t, Column(4), east.Transit)

	south := mustResolve(t, res, table, "South", model.TaxIncluded)
	assert.Equal(t, Column(5), south.Price)
	assert.Equal(t, Column(4), south.Transit)
}

func TestDeliveryMarkerWinsOverTransit(t *testing.T) {
	t.Parallel()

	res := NewResolver(DefaultLayout(), DefaultTaxonomy())
	table := model.Table{r(), r(), r(), r(nil, nil, nil, "派送时效", "时效")}

	transit, delivery, err := res.globalTimeColumns(table)
	require.NoError(t, err)
	assert.Equal(t, Column(4), transit)
	assert.Equal(t, Column(3), delivery)
}

func TestDataStartRow(t *testing.T) {
	t.Parallel()

	res := NewResolver(englishLayout(), DefaultTaxonomy())

	tests := []struct {
		name  string
		table model.Table
		want  int
	}{
		{
			name: "skips structural labels and numbers",
			table: model.Table{r(), r(), r(), r(), r(),
				r(nil, nil, "Minimum Charge"),
				r(nil, nil, "postal code"),
				r(nil, nil, 90001),
				r(nil, nil, "ONT8"),
			},
			want: 8,
		},
		{
			name: "long text is not a code",
			table: model.Table{r(), r(), r(), r(), r(),
				r(nil, nil, "this cell is definitely too long"),
				r(nil, nil, "LAX9"),
			},
			want: 6,
		},
		{
			name: "row five qualifies",
			table: model.Table{r(), r(), r(), r(), r(),
				r(nil, nil, "ONT8"),
			},
			want: 5,
		},
		{
			name: "nothing in range falls back to default",
			table: model.Table{r(), r(), r(), r(), r(),
				r(nil, nil, 1), r(nil, nil, 2), r(nil, nil, 3), r(nil, nil, 4), r(nil, nil, 5),
				r(nil, nil, "ONT8"),
			},
			want: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := res.dataStartRow(tt.table)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_MalformedHeaderReturnsError(t *testing.T) {
	t.Parallel()

	res := NewResolver(englishLayout(), DefaultTaxonomy())
	table := model.Table{r(), r(), r(), r(nil, model.Cell{Kind: model.CellKind(42)})}

	_, err := res.Resolve(table, "East", model.TaxIncluded)
	var cellErr *CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, 3, cellErr.Row)
	assert.Equal(t, 1, cellErr.Col)
}
