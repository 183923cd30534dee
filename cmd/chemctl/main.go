// Command chemctl 是运维命令行工具：清空缓存、发送测试推送、手动生成文档。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chemsafe-go/internal/config"
	"chemsafe-go/pkg/log"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chemctl",
		Short:         "Operational tooling for the chemical safety backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.Init(configPath)
			log.Init(config.Conf.Log.Level, "console", "")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "Path to the YAML config file")

	root.AddCommand(newCacheCmd(), newNotifyCmd(), newGenerateCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ %v", err))
		stop()
		os.Exit(1)
	}
}
