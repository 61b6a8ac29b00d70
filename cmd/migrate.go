package cmd

import (
	"github.com/spf13/cobra"

	"videoindex/config"
	"videoindex/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据库表结构",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// OpenDatabase 会执行迁移
		db, err := config.OpenDatabase(cfg.Database)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		logger := log.WithComponent("migrate")
		logger.Info().Str("driver", cfg.Database.Driver).Msg("database migrated")
		return nil
	},
}
