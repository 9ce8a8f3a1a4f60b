package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"freightquote/internal/exporter"
	"freightquote/internal/importer"
	"freightquote/internal/model"
	"freightquote/internal/quote"
)

type queryOptions struct {
	file      string
	warehouse string
	region    string
	tax       string
	output    string
	asJSON    bool
}

func newQueryCmd(a *app) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "查询仓库在指定区域与税种下的全部报价",
		Example: `  freightquote query -f 报价表.xlsx -w ONT8 -r 宁波 -t 自税
  freightquote query -f 报价表.xlsx -w ONT8 -r 华东 -o ONT8.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.query(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "报价表路径（默认使用 data.default_workbook）")
	cmd.Flags().StringVarP(&opts.warehouse, "warehouse", "w", "", "仓库代码，如 ONT8")
	cmd.Flags().StringVarP(&opts.region, "region", "r", "华东", "目的区域或城市别名")
	cmd.Flags().StringVarP(&opts.tax, "tax", "t", string(model.TaxIncluded), "税种：含税 / 自税")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "导出到文件（.csv 或 .xlsx）")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "以 JSON 输出")
	_ = cmd.MarkFlagRequired("warehouse")
	return cmd
}

func newWarehousesCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "warehouses",
		Short: "列出报价表中的全部仓库代码",
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, engine, err := a.openWorkbook(file)
			if err != nil {
				return err
			}
			for _, code := range engine.Warehouses(cmd.Context(), wb) {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "报价表路径（默认使用 data.default_workbook）")
	return cmd
}

// openWorkbook 加载报价表并按配置构造查询引擎
func (a *app) openWorkbook(file string) (*model.Workbook, *quote.Engine, error) {
	if file == "" {
		file = a.cfg.Data.DefaultWorkbook
	}
	if file == "" {
		return nil, nil, errors.New("请通过 --file 指定报价表")
	}
	wb, err := importer.NewLoader(1).LoadFile(file)
	if err != nil {
		return nil, nil, fmt.Errorf("加载报价表失败: %w", err)
	}
	return wb, quote.NewEngine(a.cfg.QuoteOptions()), nil
}

func (a *app) query(cmd *cobra.Command, opts *queryOptions) error {
	tax, ok := model.ParseTaxType(opts.tax)
	if !ok {
		return fmt.Errorf("税种无效: %q（可选 含税 / 自税）", opts.tax)
	}
	wb, engine, err := a.openWorkbook(opts.file)
	if err != nil {
		return err
	}

	region := engine.Taxonomy().Canonicalize(opts.region)
	if !engine.Taxonomy().IsCanonical(region) {
		fmt.Fprintf(cmd.ErrOrStderr(), "提示: 区域 %q 不在区域表中，按原样匹配\n", opts.region)
	}
	records := engine.Query(cmd.Context(), wb, opts.warehouse, opts.region, tax)

	if opts.output != "" {
		q := exporter.Query{Warehouse: opts.warehouse, Region: region, TaxType: tax}
		if err := exportFile(opts.output, q, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已导出 %d 条报价到 %s\n", len(records), opts.output)
		return nil
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	return printRecords(cmd.OutOrStdout(), strings.ToUpper(strings.TrimSpace(opts.warehouse)), region, tax, records)
}

func printRecords(w io.Writer, warehouse string, region model.Region, tax model.TaxType, records []model.QuoteRecord) error {
	fmt.Fprintf(w, "仓库 %s | 区域 %s | %s | 共 %d 条\n", warehouse, region, tax, len(records))
	if len(records) == 0 {
		fmt.Fprintln(w, "未找到匹配的报价")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(exporter.Columns, "\t"))
	for _, rec := range records {
		fmt.Fprintln(tw, strings.Join(exporter.Row(rec), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if best, ok := quote.Best(records); ok {
		fmt.Fprintf(w, "推荐: %s（%s）%s\n", best.Channel, best.ChannelCategory, best.Price)
	}
	return nil
}

func exportFile(path string, q exporter.Query, records []model.QuoteRecord) error {
	format, err := exporter.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	best := quote.BestIndex(records)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建导出文件失败: %w", err)
	}
	if err := exporter.Write(f, format, records, exporter.XLSXOptions{Query: q, Best: best}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
