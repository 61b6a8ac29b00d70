package handles

import (
	"context"
	"crypto/subtle"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"videoindex/config"
	"videoindex/log"
	"videoindex/middleware"
	"videoindex/models"
	"videoindex/services"
)

// VideoCatalog 视频详情页需要的查询
type VideoCatalog interface {
	Video(ctx context.Context, id uint) (*models.Video, error)
	UpdateVideo(ctx context.Context, id uint, edit services.VideoEdit) (*models.Video, error)
}

// VideoHandler 视频详情和编辑
type VideoHandler struct {
	pages
	catalog VideoCatalog
	policy  services.FormatPolicy
}

// NewVideoHandler 创建视频处理器
func NewVideoHandler(catalog VideoCatalog, site config.SiteConfig, policy services.FormatPolicy) *VideoHandler {
	if policy == nil {
		policy = services.DefaultFormatPolicy
	}
	return &VideoHandler{pages: pages{site: site}, catalog: catalog, policy: policy}
}

// Show 视频详情；带正确的 editkey 时显示编辑表单
// GET /video/:id/:slug/
func (h *VideoHandler) Show(c *gin.Context) {
	video, ok := h.load(c)
	if !ok {
		return
	}

	if h.canEdit(c) {
		h.renderEdit(c, http.StatusOK, video, services.VideoEdit{
			Title:   video.Title,
			Summary: video.Summary,
		}, "", false)
		return
	}

	embed := services.ResolveEmbed(services.EmbedInput{
		SourceURL: video.SourceURL,
		Embed:     video.Embed,
		Formats:   video.AvailableFormats(true),
		Browser:   middleware.BrowserName(c),
	}, h.policy)

	h.render(c, http.StatusOK, "video.html", video.Title, gin.H{
		"Meta":  services.VideoMeta(video),
		"Video": video,
		"Embed": embed,
		// 嵌入代码来自导入数据，原样输出
		"EmbedHTML": template.HTML(embed.Embed),
	})
}

// Update 保存编辑表单
// POST /video/:id/:slug/?editkey=xxx
func (h *VideoHandler) Update(c *gin.Context) {
	if !h.canEdit(c) {
		h.render(c, http.StatusForbidden, "error.html", "Forbidden", gin.H{
			"Status":  http.StatusForbidden,
			"Message": "Editing is not allowed.",
		})
		return
	}

	video, ok := h.load(c)
	if !ok {
		return
	}

	var form services.VideoEdit
	if err := c.ShouldBind(&form); err != nil {
		h.renderEdit(c, http.StatusBadRequest, video, form, err.Error(), false)
		return
	}

	updated, err := h.catalog.UpdateVideo(c.Request.Context(), video.ID, form)
	if err != nil {
		h.serverError(c, "video", err)
		return
	}

	logger := log.FromContext(c.Request.Context(), "video")
	logger.Info().Uint("video_id", updated.ID).Msg("video edited")

	h.renderEdit(c, http.StatusOK, updated, services.VideoEdit{
		Title:   updated.Title,
		Summary: updated.Summary,
	}, "", true)
}

func (h *VideoHandler) load(c *gin.Context) (*models.Video, bool) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return nil, false
	}

	video, err := h.catalog.Video(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		h.notFound(c)
		return nil, false
	}
	if err != nil {
		h.serverError(c, "video", err)
		return nil, false
	}
	return video, true
}

// canEdit 未配置 edit_key 时永远不可编辑
func (h *VideoHandler) canEdit(c *gin.Context) bool {
	key := c.Query("editkey")
	if h.site.EditKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.site.EditKey)) == 1
}

func (h *VideoHandler) renderEdit(c *gin.Context, status int, video *models.Video, form services.VideoEdit, formErr string, saved bool) {
	h.render(c, status, "video_edit.html", video.Title, gin.H{
		"Video":     video,
		"Form":      form,
		"FormError": formErr,
		"Saved":     saved,
		"EditKey":   c.Query("editkey"),
	})
}
