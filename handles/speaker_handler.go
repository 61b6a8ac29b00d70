package handles

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"videoindex/config"
	"videoindex/models"
	"videoindex/services"
)

const defaultInitial = "a"

// SpeakerCatalog 演讲者页需要的查询
type SpeakerCatalog interface {
	SpeakerInitials(ctx context.Context) ([]string, error)
	SpeakersByInitial(ctx context.Context, initial string) ([]services.SpeakerSummary, error)
	Speaker(ctx context.Context, id uint) (*models.Speaker, error)
	LiveVideosBySpeaker(ctx context.Context, speakerID uint) ([]models.Video, error)
}

// SpeakerHandler 演讲者页面处理器
type SpeakerHandler struct {
	pages
	catalog SpeakerCatalog
}

// NewSpeakerHandler 创建演讲者页面处理器
func NewSpeakerHandler(catalog SpeakerCatalog, site config.SiteConfig) *SpeakerHandler {
	return &SpeakerHandler{pages: pages{site: site}, catalog: catalog}
}

// List 按首字母列出演讲者
// GET /speaker/?character=a
func (h *SpeakerHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	chars, err := h.catalog.SpeakerInitials(ctx)
	if err != nil {
		h.serverError(c, "speaker", err)
		return
	}

	active := activeInitial(c.DefaultQuery("character", defaultInitial), chars)
	speakers, err := h.catalog.SpeakersByInitial(ctx, active)
	if err != nil {
		h.serverError(c, "speaker", err)
		return
	}

	h.render(c, http.StatusOK, "speaker_list.html", "Speakers", gin.H{
		"Chars":      chars,
		"ActiveChar": active,
		"Speakers":   speakers,
	})
}

// activeInitial 没有演讲者时原样使用请求的字母；
// 否则不是单个已知首字母时退回第一个首字母
func activeInitial(requested string, chars []string) string {
	if len(chars) == 0 {
		return requested
	}
	if len([]rune(requested)) != 1 || !lo.Contains(chars, requested) {
		return chars[0]
	}
	return requested
}

// Videos 演讲者的视频
// GET /speaker/:id/:slug/
func (h *SpeakerHandler) Videos(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}

	ctx := c.Request.Context()
	speaker, err := h.catalog.Speaker(ctx, id)
	if errors.Is(err, services.ErrNotFound) {
		h.notFound(c)
		return
	}
	if err != nil {
		h.serverError(c, "speaker", err)
		return
	}

	videos, err := h.catalog.LiveVideosBySpeaker(ctx, id)
	if err != nil {
		h.serverError(c, "speaker", err)
		return
	}

	h.render(c, http.StatusOK, "speaker.html", speaker.Name, gin.H{
		"Speaker": speaker,
		"Videos":  videos,
	})
}
