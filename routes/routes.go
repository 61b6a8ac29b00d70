package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"videoindex/config"
	"videoindex/handles"
	"videoindex/middleware"
)

// Handlers 路由用到的全部处理器
type Handlers struct {
	Category *handles.CategoryHandler
	Speaker  *handles.SpeakerHandler
	Video    *handles.VideoHandler
	Search   *handles.SearchHandler
	API      *handles.APIHandler
	Health   *handles.HealthHandler
	Admin    *handles.AdminHandler

	Site           config.SiteConfig
	AdminToken     string
	SuggestLimiter *middleware.RateLimiter
}

// SetupRoutes 设置路由
func SetupRoutes(r *gin.Engine, h Handlers) {
	r.NoRoute(handles.NotFoundPage(h.Site))

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/category/")
	})

	// ============ 页面 ============
	pages := r.Group("/", middleware.Browser())
	{
		pages.GET("/category/", h.Category.List)
		pages.GET("/category/:id/:slug/", h.Category.Videos)
		pages.GET("/category/:id/:slug/files/", h.Category.Files)

		pages.GET("/speaker/", h.Speaker.List)
		pages.GET("/speaker/:id/:slug/", h.Speaker.Videos)

		pages.GET("/video/:id/:slug/", h.Video.Show)
		pages.POST("/video/:id/:slug/", h.Video.Update)

		pages.GET("/search/", h.Search.Search)
		pages.GET("/search/xml/", h.Search.OpenSearch)
	}

	// 联想关闭时始终返回 404，不经过限流
	suggest := []gin.HandlerFunc{h.Search.Suggestions}
	if h.SuggestLimiter != nil && h.Site.SuggestionsEnabled {
		suggest = append([]gin.HandlerFunc{h.SuggestLimiter.Handler()}, suggest...)
	}
	r.GET("/search/suggestions/", suggest...)

	// ============ 公开API（无需认证）============
	public := r.Group("/api", middleware.CORS())
	{
		public.GET("/health", h.Health.Health)
		public.GET("/v1/video/urlforsource", h.API.URLForSource)
	}

	// ============ 管理员API（需要认证）============
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(h.AdminToken))
	{
		admin.POST("/reindex", h.Admin.Reindex)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
