package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uctenky/backend/config"
	applogger "uctenky/backend/pkg/logger"
)

var (
	// 全局参数
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "uctenky",
	Short: "účtenky 报销与收银台后端",
	Long: `účtenky 后端服务：报销单审批、小票上传与报销、收银台对账。

不带子命令运行时等同于 "uctenky serve"。`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// loadRuntime 加载配置并初始化日志，供需要外部依赖的子命令使用
func loadRuntime(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err = applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	return nil
}

func syncLogger(*cobra.Command, []string) {
	if logger != nil {
		_ = logger.Sync()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	rootCmd.PreRunE = loadRuntime
	rootCmd.PostRun = syncLogger

	rootCmd.AddCommand(serveCmd, migrateCmd, semesterCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
