package handles

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"videoindex/log"
	"videoindex/metrics"
)

// Rebuilder 重建检索索引
type Rebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// InitialsInvalidator 清除演讲者首字母缓存
type InitialsInvalidator interface {
	InvalidateSpeakerInitials(ctx context.Context)
}

// AdminHandler 管理接口
type AdminHandler struct {
	indexer Rebuilder
	cache   InitialsInvalidator
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(indexer Rebuilder, cache InitialsInvalidator) *AdminHandler {
	return &AdminHandler{indexer: indexer, cache: cache}
}

// Reindex 从数据库重建索引，并清除首字母缓存
// POST /api/admin/reindex
func (h *AdminHandler) Reindex(c *gin.Context) {
	ctx := c.Request.Context()
	logger := log.FromContext(ctx, "admin")

	start := time.Now()
	n, err := h.indexer.Rebuild(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("reindex failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "重建索引失败: " + err.Error(),
		})
		return
	}
	metrics.SetIndexDocuments(n)
	h.cache.InvalidateSpeakerInitials(ctx)

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": gin.H{
			"documents":   n,
			"duration_ms": time.Since(start).Milliseconds(),
		},
	})
}
