package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"videoindex/server"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "从数据库重建搜索索引",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		app, err := server.NewApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.Indexer.Rebuild(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "索引文档 %d\n", n)
		return nil
	},
}
