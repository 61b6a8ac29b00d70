package handles

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"videoindex/log"
	"videoindex/metrics"
	"videoindex/models"
	"videoindex/services"
	"videoindex/utils"
)

// SourceLookup 按来源地址查找视频
type SourceLookup interface {
	VideoBySourceURL(ctx context.Context, sourceURL string) (*models.Video, error)
}

// APIHandler 对外 JSON 接口
type APIHandler struct {
	lookup SourceLookup
	origin string
}

// NewAPIHandler origin 为站点规范地址，如 http://pyvideo.org
func NewAPIHandler(lookup SourceLookup, origin string) *APIHandler {
	return &APIHandler{lookup: lookup, origin: strings.TrimRight(origin, "/")}
}

// URLForSource 来源地址 -> 本站视频地址
// GET /api/v1/video/urlforsource?host_url=xxx
func (h *APIHandler) URLForSource(c *gin.Context) {
	hostURL := c.Query("host_url")
	if hostURL == "" {
		metrics.RecordSourceLookup(false)
		utils.NotFound(c)
		return
	}

	video, err := h.lookup.VideoBySourceURL(c.Request.Context(), hostURL)
	if errors.Is(err, services.ErrNotFound) {
		metrics.RecordSourceLookup(false)
		utils.NotFound(c)
		return
	}
	if err != nil {
		logger := log.FromContext(c.Request.Context(), "api")
		logger.Error().Err(err).Str("host_url", hostURL).Msg("source lookup failed")
		utils.JSONError(c, http.StatusInternalServerError, "lookup failed")
		return
	}

	metrics.RecordSourceLookup(true)
	c.JSON(http.StatusOK, gin.H{"source_url": h.origin + video.AbsoluteURL()})
}
