package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"freightquote/internal/config"
)

func newInitConfigCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "写出默认 config.toml（含区域表与列位置约定）",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.info.Path
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s 已存在，使用 --force 覆盖", path)
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写入 %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的配置文件")
	return cmd
}
