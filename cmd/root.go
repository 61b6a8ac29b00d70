// Package cmd 命令行入口
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"videoindex/config"
	"videoindex/log"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML 配置文件路径")
	rootCmd.AddCommand(serveCmd, migrateCmd, importCmd, reindexCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:           "videoindex",
	Short:         "会议视频索引站点",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute 运行命令行
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

// loadConfig 读取配置并初始化日志
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	log.Configure(log.Config{Level: cfg.Log.Level})
	return cfg, nil
}
