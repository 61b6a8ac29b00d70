package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"videoindex/models"
	"videoindex/search"
)

// VideoSource 提供待索引的视频
type VideoSource interface {
	LiveVideos(ctx context.Context) ([]models.Video, error)
}

// Indexer 从数据库重建检索索引
type Indexer struct {
	source VideoSource
	index  search.Index
	logger zerolog.Logger
}

// NewIndexer 创建索引器
func NewIndexer(source VideoSource, index search.Index, logger zerolog.Logger) *Indexer {
	return &Indexer{source: source, index: index, logger: logger}
}

// Rebuild 重建索引，返回写入的文档数
func (ix *Indexer) Rebuild(ctx context.Context) (int, error) {
	videos, err := ix.source.LiveVideos(ctx)
	if err != nil {
		return 0, err
	}

	docs := lo.Map(videos, func(v models.Video, _ int) search.Document {
		return DocumentFor(&v)
	})
	if err := ix.index.Reindex(ctx, docs); err != nil {
		return 0, fmt.Errorf("重建索引失败: %w", err)
	}

	ix.logger.Info().Int("documents", len(docs)).Msg("索引重建完成")
	return len(docs), nil
}

// DocumentFor 视频转索引文档
func DocumentFor(v *models.Video) search.Document {
	doc := search.Document{
		ID:          strconv.FormatUint(uint64(v.ID), 10),
		Title:       v.Title,
		Summary:     v.Summary,
		Description: v.Description,
		URL:         v.AbsoluteURL(),
		Speakers:    lo.Map(v.Speakers, func(s models.Speaker, _ int) string { return s.Name }),
		Tags:        v.TagNames(),
	}
	if v.Category != nil {
		doc.Category = v.Category.Title
	}
	return doc
}
