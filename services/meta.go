package services

import (
	"strings"

	"videoindex/models"
	"videoindex/utils"
)

// MetaTag 页面 <meta name=... content=...>
type MetaTag struct {
	Name    string
	Content string
}

// VideoMeta 生成视频详情页的 keywords 和 description
func VideoMeta(v *models.Video) []MetaTag {
	meta := []MetaTag{
		{Name: "keywords", Content: strings.Join(v.TagNames(), ",")},
	}
	if v.Summary != "" {
		meta = append(meta, MetaTag{Name: "description", Content: utils.StripTags(v.Summary)})
	}
	return meta
}
