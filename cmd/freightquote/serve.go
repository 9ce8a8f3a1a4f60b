package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"freightquote/internal/server"
	"freightquote/internal/util"
)

type serveOptions struct {
	port      int
	dev       bool
	dataDir   string
	workbook  string
	noBrowser bool
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 Web 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.port, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "开发模式")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	cmd.Flags().StringVar(&opts.workbook, "workbook", "", "启动时加载的报价表")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "不自动打开浏览器")
	return cmd
}

func (a *app) serve(cmd *cobra.Command, opts *serveOptions) error {
	cfg := a.cfg
	out := cmd.OutOrStdout()

	// 命令行参数覆盖配置
	if opts.port > 0 && !a.info.PortSpecified {
		cfg.Server.Port = opts.port
	}
	if opts.dev {
		cfg.Server.DevMode = true
	}
	if opts.dataDir != "" {
		cfg.Data.DataDir = opts.dataDir
	}
	if opts.workbook != "" {
		cfg.Data.DefaultWorkbook = opts.workbook
	}

	fmt.Fprintln(out, "==========================================")
	fmt.Fprintln(out, "  FreightQuote - 海运报价查询")
	fmt.Fprintln(out, "==========================================")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "数据目录: %s\n", srv.DataDir())

	if err := srv.LoadDefaultWorkbook(ctx); err != nil {
		// 默认报价表加载失败不影响启动，可在页面重新上传
		slog.Warn("default workbook not loaded", "path", cfg.Data.DefaultWorkbook, "error", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := util.ServerURL(cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(out, "服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		errCh <- srv.Run(addr)
	}()

	if cfg.Server.OpenBrowser && !cfg.Server.DevMode && !opts.noBrowser {
		fmt.Fprintf(out, "正在打开浏览器: %s\n", url)
		if err := util.OpenBrowser(url); err != nil {
			fmt.Fprintf(out, "无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Fprintf(out, "请访问 %s\n", url)
	}
	fmt.Fprintln(out, "\n按 Ctrl+C 停止服务...")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	fmt.Fprintln(out, "\n正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("服务启动失败: %w", runErr)
	}
	return nil
}
