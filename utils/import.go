package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"videoindex/models"
)

// CatalogFile 导入文件格式
type CatalogFile struct {
	Categories []CategoryRecord `json:"categories"`
	Videos     []VideoRecord    `json:"videos"`
}

type CategoryRecord struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type VideoRecord struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	State       int      `json:"state"`
	SourceURL   string   `json:"source_url"`
	Embed       string   `json:"embed"`
	Category    string   `json:"category"`
	Speakers    []string `json:"speakers"`
	Tags        []string `json:"tags"`
	RecordedAt  string   `json:"recorded"` // 2006-01-02

	VideoOGVURL           string `json:"video_ogv_url"`
	VideoOGVDownloadOnly  bool   `json:"video_ogv_download_only"`
	VideoMP4URL           string `json:"video_mp4_url"`
	VideoMP4DownloadOnly  bool   `json:"video_mp4_download_only"`
	VideoWebMURL          string `json:"video_webm_url"`
	VideoWebMDownloadOnly bool   `json:"video_webm_download_only"`
	VideoFLVURL           string `json:"video_flv_url"`
	VideoFLVDownloadOnly  bool   `json:"video_flv_download_only"`
}

// ImportStats 导入统计
type ImportStats struct {
	Categories int
	Created    int
	Updated    int
	Failed     int
}

// ImportCatalog 从 JSON 导入分类、演讲者、标签和视频。
// 视频按 source_url 去重，没有 source_url 时按 标题+分类 去重。
func ImportCatalog(ctx context.Context, db *gorm.DB, r io.Reader, logger zerolog.Logger) (ImportStats, error) {
	var stats ImportStats

	var file CatalogFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return stats, fmt.Errorf("解析JSON失败: %w", err)
	}

	db = db.WithContext(ctx)

	categories := make(map[string]*models.Category)
	for _, rec := range file.Categories {
		cat, err := upsertCategory(db, rec)
		if err != nil {
			return stats, err
		}
		categories[cat.Title] = cat
		stats.Categories++
	}

	logger.Info().Int("videos", len(file.Videos)).Msg("开始导入视频")

	for _, rec := range file.Videos {
		created, err := importVideo(db, rec, categories)
		if err != nil {
			logger.Warn().Err(err).Str("title", rec.Title).Msg("导入视频失败")
			stats.Failed++
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	logger.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("failed", stats.Failed).
		Msg("导入完成")
	return stats, nil
}

func upsertCategory(db *gorm.DB, rec CategoryRecord) (*models.Category, error) {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return nil, errors.New("分类标题不能为空")
	}

	var cat models.Category
	err := db.Where(models.Category{Title: title}).
		Attrs(models.Category{Slug: slugOr(rec.Slug, title), Description: rec.Description, URL: rec.URL}).
		FirstOrCreate(&cat).Error
	if err != nil {
		return nil, fmt.Errorf("保存分类 %q 失败: %w", title, err)
	}
	return &cat, nil
}

func importVideo(db *gorm.DB, rec VideoRecord, categories map[string]*models.Category) (bool, error) {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return false, errors.New("视频标题不能为空")
	}

	created := false
	err := db.Transaction(func(tx *gorm.DB) error {
		video := models.Video{
			Title:                 title,
			Slug:                  slugOr(rec.Slug, title),
			Summary:               rec.Summary,
			Description:           rec.Description,
			State:                 rec.State,
			SourceURL:             rec.SourceURL,
			Embed:                 rec.Embed,
			VideoOGVURL:           rec.VideoOGVURL,
			VideoOGVDownloadOnly:  rec.VideoOGVDownloadOnly,
			VideoMP4URL:           rec.VideoMP4URL,
			VideoMP4DownloadOnly:  rec.VideoMP4DownloadOnly,
			VideoWebMURL:          rec.VideoWebMURL,
			VideoWebMDownloadOnly: rec.VideoWebMDownloadOnly,
			VideoFLVURL:           rec.VideoFLVURL,
			VideoFLVDownloadOnly:  rec.VideoFLVDownloadOnly,
		}
		if video.State == 0 {
			video.State = models.StateLive
		}
		if rec.RecordedAt != "" {
			if t, err := time.Parse("2006-01-02", rec.RecordedAt); err == nil {
				video.RecordedAt = &t
			}
		}

		if rec.Category != "" {
			cat, ok := categories[rec.Category]
			if !ok {
				var err error
				cat, err = upsertCategory(tx, CategoryRecord{Title: rec.Category})
				if err != nil {
					return err
				}
				categories[cat.Title] = cat
			}
			video.CategoryID = cat.ID
		}

		// 检查是否已存在
		var existing models.Video
		query := tx.Model(&models.Video{})
		if rec.SourceURL != "" {
			query = query.Where("source_url = ?", rec.SourceURL)
		} else {
			query = query.Where("title = ? AND category_id = ?", title, video.CategoryID)
		}
		result := query.Limit(1).Find(&existing)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected > 0 {
			video.ID = existing.ID
			video.CreatedAt = existing.CreatedAt
			if err := tx.Save(&video).Error; err != nil {
				return fmt.Errorf("更新失败: %w", err)
			}
		} else {
			if err := tx.Create(&video).Error; err != nil {
				return fmt.Errorf("创建失败: %w", err)
			}
			created = true
		}

		speakers, err := findOrCreateSpeakers(tx, rec.Speakers)
		if err != nil {
			return err
		}
		if err := tx.Model(&video).Association("Speakers").Replace(speakers); err != nil {
			return fmt.Errorf("关联演讲者失败: %w", err)
		}

		tags, err := findOrCreateTags(tx, rec.Tags)
		if err != nil {
			return err
		}
		if err := tx.Model(&video).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("关联标签失败: %w", err)
		}
		return nil
	})
	return created, err
}

func findOrCreateSpeakers(tx *gorm.DB, names []string) ([]models.Speaker, error) {
	speakers := make([]models.Speaker, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var s models.Speaker
		if err := tx.Where(models.Speaker{Name: name}).Attrs(models.Speaker{Slug: Slugify(name)}).FirstOrCreate(&s).Error; err != nil {
			return nil, fmt.Errorf("保存演讲者 %q 失败: %w", name, err)
		}
		speakers = append(speakers, s)
	}
	return speakers, nil
}

func findOrCreateTags(tx *gorm.DB, labels []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		var t models.Tag
		if err := tx.Where(models.Tag{Tag: label}).FirstOrCreate(&t).Error; err != nil {
			return nil, fmt.Errorf("保存标签 %q 失败: %w", label, err)
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func slugOr(slug, title string) string {
	if slug != "" {
		return slug
	}
	return Slugify(title)
}

// Slugify 生成 URL 片段：小写字母数字，其余字符折叠为单个 '-'
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 50 {
		out = strings.TrimSuffix(out[:50], "-")
	}
	return out
}
