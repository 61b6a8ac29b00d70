package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"videoindex/log"
	"videoindex/server"
	"videoindex/utils"
)

var importCmd = &cobra.Command{
	Use:   "import <catalog.json>",
	Short: "导入分类和视频，完成后重建索引",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("打开导入文件失败: %w", err)
		}
		defer f.Close()

		ctx := cmd.Context()
		app, err := server.NewApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		stats, err := utils.ImportCatalog(ctx, app.DB, f, log.WithComponent("import"))
		if err != nil {
			return err
		}
		app.Catalog.InvalidateSpeakerInitials(ctx)

		n, err := app.Indexer.Rebuild(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "分类 %d，新增 %d，更新 %d，失败 %d，索引文档 %d\n",
			stats.Categories, stats.Created, stats.Updated, stats.Failed, n)
		return nil
	},
}
