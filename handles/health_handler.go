package handles

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger 数据库连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocCounter 索引文档数
type DocCounter interface {
	Count() (uint64, error)
}

// HealthHandler 健康检查
type HealthHandler struct {
	db    Pinger
	index DocCounter
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db Pinger, index DocCounter) *HealthHandler {
	return &HealthHandler{db: db, index: index}
}

// Health 数据库和索引都可用时返回 200，否则 503
// GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if n, err := h.index.Count(); err != nil {
		checks["search_index"] = err.Error()
		healthy = false
	} else {
		checks["search_index"] = "ok"
		checks["documents"] = n
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
	})
}
