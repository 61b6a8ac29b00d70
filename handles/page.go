package handles

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"videoindex/config"
	"videoindex/log"
)

// pages 页面渲染的公共部分
type pages struct {
	site config.SiteConfig
}

// render 渲染页面，data 中补齐模板公共字段
func (p pages) render(c *gin.Context, status int, name, title string, data gin.H) {
	page := gin.H{
		"Site":  p.site,
		"Title": title,
		"Meta":  nil,
		"Query": "",
	}
	for k, v := range data {
		page[k] = v
	}
	c.HTML(status, name, page)
}

func (p pages) notFound(c *gin.Context) {
	p.render(c, http.StatusNotFound, "error.html", "Not found", gin.H{
		"Status":  http.StatusNotFound,
		"Message": "Page not found.",
	})
}

func (p pages) serverError(c *gin.Context, component string, err error) {
	logger := log.FromContext(c.Request.Context(), component)
	logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	p.render(c, http.StatusInternalServerError, "error.html", "Error", gin.H{
		"Status":  http.StatusInternalServerError,
		"Message": "Something went wrong.",
	})
}

// parseID 解析路径中的 :id，slug 只做装饰不校验
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// NotFoundPage 未匹配路由时的 404 页面
func NotFoundPage(site config.SiteConfig) gin.HandlerFunc {
	return pages{site: site}.notFound
}
