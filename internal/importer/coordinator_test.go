package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightquote/internal/model"
	"freightquote/internal/quote"
	"freightquote/internal/store"
)

func TestImport_QuoteWorkbook(t *testing.T) {
	t.Parallel()

	input := writeWorkbook(t, "报价表.xlsx",
		fixtureSheet{name: "目录", rows: [][]interface{}{{"说明"}}},
		quoteSheet("美森快船",
			[]interface{}{1, "美森正班", "ONT8", 10.5, 1650, "12-15天"},
			[]interface{}{2, "美森加班", "ONT8", 9.8, 1600, "14-18天"},
		),
		quoteSheet("普船", []interface{}{1, "普船A", "LAX9", 8, 1200, "25天"}),
	)

	st, err := store.New(filepath.Join(t.TempDir(), "freightquote.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	engine := quote.NewEngine(quote.DefaultOptions())
	coordinator := NewCoordinator(st, NewLoader(0), engine)

	var (
		report *ImportReport
		types  []string
	)
	for evt := range coordinator.Import(context.Background(), ImportOptions{FilePath: input}) {
		types = append(types, evt.Type)
		if evt.Type == EventError {
			t.Fatalf("import error event: %s", evt.Message)
		}
		if evt.Type == EventDone {
			report, _ = evt.Data.(*ImportReport)
		}
	}

	require.NotNil(t, report, "missing done report")
	assert.Equal(t, EventStart, types[0])
	assert.Equal(t, EventDone, types[len(types)-1])

	assert.Equal(t, 3, report.TotalSheets)
	assert.Equal(t, 2, report.LoadedSheets)
	assert.Equal(t, 1, report.SkippedSheets)
	assert.Equal(t, 2, report.Warehouses)
	assert.Equal(t, SheetSkipped, report.Sheets[0].Status)
	assert.False(t, report.Cached)

	require.NotNil(t, report.Workbook)
	got := engine.Query(context.Background(), report.Workbook, "ONT8", "上海", model.TaxIncluded)
	require.Len(t, got, 2)
	assert.Equal(t, "美森加班", got[0].Channel)

	var status string
	if err := st.QueryRow("SELECT status FROM import_logs").Scan(&status); err != nil {
		t.Fatalf("read import log: %v", err)
	}
	assert.Equal(t, store.ImportStatusSuccess, status)
}

func TestImportSync_ReusesParsedWorkbook(t *testing.T) {
	t.Parallel()

	input := writeWorkbook(t, "q.xlsx", quoteSheet("S", []interface{}{1, "L", "ONT8", 1, 2, "1d"}))
	coordinator := NewCoordinator(nil, NewLoader(0), nil)

	first, err := coordinator.ImportSync(context.Background(), ImportOptions{FilePath: input})
	require.NoError(t, err)
	second, err := coordinator.ImportSync(context.Background(), ImportOptions{FilePath: input})
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.WorkbookID, second.WorkbookID)
}

func TestImport_FailureIsLogged(t *testing.T) {
	t.Parallel()

	st, err := store.New(filepath.Join(t.TempDir(), "freightquote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	coordinator := NewCoordinator(st, nil, nil)

	_, err = coordinator.ImportSync(context.Background(), ImportOptions{FilePath: filepath.Join(t.TempDir(), "missing.xlsx")})
	assert.Error(t, err)

	_, err = coordinator.ImportSync(context.Background(), ImportOptions{FilePath: "quotes.csv"})
	assert.ErrorContains(t, err, "unsupported")

	logs, err := st.ListImportLogs(10)
	require.NoError(t, err)
	assert.Empty(t, logs, "nothing was read, so no log row is created")
}
