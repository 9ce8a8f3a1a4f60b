package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeQuoteWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetSheetName("Sheet1", "美森快船"))
	rows := [][]interface{}{
		{"美森快船报价"},
		{},
		{},
		{"序号", "渠道", "仓库代码", "含税", "自税", "时效", "派送时效"},
		{"", "", "", "华东（上海/宁波）", "华东", "", ""},
		{"", "", "起收量", "KG", "CBM", "", ""},
		{1, "美森正班", "ONT8", 11, 1700, "开船后12-15天", "3天"},
		{2, "美森加班", "ONT8", 10.2, 1680, "开船后14-18天", "3-5天"},
		{3, "以星", "LAX9", 9, "询价", "开船后16天", ""},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("美森快船", cell, &r))
	}

	path := filepath.Join(t.TempDir(), "报价表.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	if configPath == "" {
		configPath = filepath.Join(t.TempDir(), "config.toml")
	}
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestQueryCommand_PrintsSortedTable(t *testing.T) {
	file := writeQuoteWorkbook(t)

	out, err := runCLI(t, "", "query", "-f", file, "-w", "ont8", "-r", "上海", "-t", "含税")
	require.NoError(t, err)

	assert.Contains(t, out, "仓库 ONT8 | 区域 华东 | 含税 | 共 2 条")
	assert.Less(t, strings.Index(out, "美森加班"), strings.Index(out, "美森正班"))
	assert.Contains(t, out, "推荐: 美森加班（美森快船）10.2")
}

func TestQueryCommand_NoMatch(t *testing.T) {
	file := writeQuoteWorkbook(t)

	out, err := runCLI(t, "", "query", "-f", file, "-w", "XYZ1", "-r", "华东")
	require.NoError(t, err)
	assert.Contains(t, out, "未找到匹配的报价")
}

func TestQueryCommand_UnknownRegionHint(t *testing.T) {
	file := writeQuoteWorkbook(t)

	out, err := runCLI(t, "", "query", "-f", file, "-w", "ONT8", "-r", "火星")
	require.NoError(t, err)
	assert.Contains(t, out, "不在区域表中")
	assert.Contains(t, out, "共 0 条")
}

func TestQueryCommand_InvalidTax(t *testing.T) {
	file := writeQuoteWorkbook(t)

	_, err := runCLI(t, "", "query", "-f", file, "-w", "ONT8", "-t", "免税")
	assert.ErrorContains(t, err, "税种无效")
}

func TestQueryCommand_JSONStdoutCarriesNoLogs(t *testing.T) {
	file := writeQuoteWorkbook(t)
	t.Setenv("FREIGHTQUOTE_LOG_LEVEL", "debug")

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "config.toml"),
		"query", "-f", file, "-w", "ONT8", "-r", "华东", "--json"})
	require.NoError(t, cmd.Execute())

	var records []map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &records), stdout.String())
	assert.Len(t, records, 2)
	assert.Contains(t, stderr.String(), "query done")
}

func TestQueryCommand_ExportCSV(t *testing.T) {
	file := writeQuoteWorkbook(t)
	dest := filepath.Join(t.TempDir(), "out.csv")

	out, err := runCLI(t, "", "query", "-f", file, "-w", "LAX9", "-r", "华东", "-t", "自税", "-o", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "已导出 1 条报价")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\xef\xbb\xbf")))
	assert.Contains(t, string(data), "以星,开船后16天,-,-,美森快船")
}

func TestWarehousesCommand(t *testing.T) {
	file := writeQuoteWorkbook(t)

	out, err := runCLI(t, "", "warehouses", "-f", file)
	require.NoError(t, err)
	assert.Equal(t, "LAX9\nONT8\n", out)
}

func TestInitConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, path, "init-config")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = runCLI(t, path, "init-config")
	assert.ErrorContains(t, err, "--force")

	_, err = runCLI(t, path, "init-config", "--force")
	assert.NoError(t, err)
}
