package server

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"videoindex/cache"
	"videoindex/config"
	"videoindex/handles"
	"videoindex/log"
	"videoindex/middleware"
	"videoindex/routes"
	"videoindex/search"
	"videoindex/services"
)

// App 按配置组装好的各个组件
type App struct {
	Config  config.Config
	DB      *gorm.DB
	Cache   cache.Cache
	Index   search.Index
	Catalog *services.CatalogService
	Search  *services.SearchService
	Indexer *services.Indexer

	closers []func() error
}

// NewApp 打开数据库、缓存和索引。任一步失败都会关闭已打开的资源。
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}
	if err := app.open(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) open(ctx context.Context) error {
	cfg := a.Config

	var err error
	a.DB, err = config.OpenDatabase(cfg.Database)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB}, log.WithComponent("cache"))
		if err != nil {
			return err
		}
		a.Cache = rc
		a.closers = append(a.closers, rc.Close)
	} else {
		a.Cache = cache.NewMemoryCache()
	}

	idx, err := search.OpenBleve(cfg.Search.Path, log.WithComponent("search"))
	if err != nil {
		return err
	}
	a.Index = idx
	a.closers = append(a.closers, idx.Close)

	a.Catalog = services.NewCatalogService(a.DB, a.Cache, cfg.Cache.TTL)
	a.Search = services.NewSearchService(a.Index, cfg.Search.PageSize)
	a.Indexer = services.NewIndexer(a.Catalog, a.Index, log.WithComponent("indexer"))
	return nil
}

// Handlers 组装 HTTP 处理器
func (a *App) Handlers() routes.Handlers {
	site := a.Config.Site
	return routes.Handlers{
		Category: handles.NewCategoryHandler(a.Catalog, site),
		Speaker:  handles.NewSpeakerHandler(a.Catalog, site),
		Video:    handles.NewVideoHandler(a.Catalog, site, services.DefaultFormatPolicy),
		Search:   handles.NewSearchHandler(a.Search, site),
		API:      handles.NewAPIHandler(a.Catalog, site.Origin),
		Health:   handles.NewHealthHandler(a.Catalog, a.Index),
		Admin:    handles.NewAdminHandler(a.Indexer, a.Catalog),

		Site:           site,
		AdminToken:     a.Config.Admin.Token,
		SuggestLimiter: middleware.NewRateLimiter("suggestions", a.Config.RateLimit.SuggestRPS, a.Config.RateLimit.SuggestBurst),
	}
}

// Close 按打开的逆序关闭资源
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("关闭资源失败: %w", errors.Join(errs...))
	}
	return nil
}
