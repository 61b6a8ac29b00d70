package handles

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"videoindex/config"
	"videoindex/models"
	"videoindex/services"
)

// CategoryCatalog 分类页需要的查询
type CategoryCatalog interface {
	CategoriesByTitle(ctx context.Context) ([]models.Category, error)
	Category(ctx context.Context, id uint) (*models.Category, error)
	LiveVideosInCategory(ctx context.Context, categoryID uint) ([]models.Video, error)
}

// CategoryHandler 分类页面处理器
type CategoryHandler struct {
	pages
	catalog CategoryCatalog
}

// NewCategoryHandler 创建分类页面处理器
func NewCategoryHandler(catalog CategoryCatalog, site config.SiteConfig) *CategoryHandler {
	return &CategoryHandler{pages: pages{site: site}, catalog: catalog}
}

// List 分类列表，按去掉年份后的标题分组
// GET /category/
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.catalog.CategoriesByTitle(c.Request.Context())
	if err != nil {
		h.serverError(c, "category", err)
		return
	}

	h.render(c, http.StatusOK, "category_list.html", "Categories", gin.H{
		"Groups": services.GroupCategories(categories),
	})
}

// Videos 分类下的视频
// GET /category/:id/:slug/
func (h *CategoryHandler) Videos(c *gin.Context) {
	h.show(c, "videos")
}

// Files 分类下视频的下载文件
// GET /category/:id/:slug/files/
func (h *CategoryHandler) Files(c *gin.Context) {
	h.show(c, "files")
}

func (h *CategoryHandler) show(c *gin.Context, view string) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}

	ctx := c.Request.Context()
	category, err := h.catalog.Category(ctx, id)
	if errors.Is(err, services.ErrNotFound) {
		h.notFound(c)
		return
	}
	if err != nil {
		h.serverError(c, "category", err)
		return
	}

	videos, err := h.catalog.LiveVideosInCategory(ctx, id)
	if err != nil {
		h.serverError(c, "category", err)
		return
	}

	h.render(c, http.StatusOK, "category.html", category.Title, gin.H{
		"View":     view,
		"Category": category,
		"Videos":   videos,
	})
}
