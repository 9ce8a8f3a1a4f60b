// freightquote 海运报价查询工具：加载报价 Excel，按仓库、区域、税种查询并比价。
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"freightquote/internal/config"
	"freightquote/internal/logging"
)

// app 命令间共享的状态
type app struct {
	configPath string
	cfg        *config.AppConfig
	info       config.LoadConfigInfo
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "freightquote",
		Short:         "海运报价查询工具",
		Long:          "加载报价 Excel（每个 Sheet 一个渠道分类），按仓库代码、目的区域与税种查询全部渠道报价并按价格排序。",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "配置文件路径（默认可执行文件目录下的 config.toml）")

	rootCmd.AddCommand(
		newServeCmd(a),
		newQueryCmd(a),
		newWarehousesCmd(a),
		newInitConfigCmd(a),
	)
	return rootCmd
}

// loadConfig 依次加载 .env、config.toml 与环境变量，并把日志初始化到 logOut
func (a *app) loadConfig(logOut io.Writer) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, info, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	a.cfg = cfg
	a.info = info
	logging.SetupWriter(logOut, cfg.Logging.Level, cfg.Logging.Format)
	return nil
}
