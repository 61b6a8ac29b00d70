package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"videoindex/log"
	"videoindex/metrics"
	"videoindex/server"
)

var reindexOnStart bool

func init() {
	serveCmd.Flags().BoolVar(&reindexOnStart, "reindex", true, "启动时从数据库重建索引")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := log.WithComponent("serve")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.NewApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		if reindexOnStart {
			n, err := app.Indexer.Rebuild(ctx)
			if err != nil {
				// 索引不可用时页面仍可浏览，搜索返回错误页
				logger.Error().Err(err).Msg("initial reindex failed")
			} else {
				metrics.SetIndexDocuments(n)
			}
		}

		logger.Info().
			Str("port", cfg.Server.Port).
			Str("origin", cfg.Site.Origin).
			Bool("suggestions", cfg.Site.SuggestionsEnabled).
			Msg("starting server")
		return server.NewServer(cfg.Server, app.Handlers()).Start(ctx)
	},
}
