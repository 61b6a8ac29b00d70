package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"gorm.io/gorm"

	"videoindex/cache"
	"videoindex/models"
)

// ErrNotFound 查询的对象不存在
var ErrNotFound = errors.New("not found")

const speakerInitialsKey = "speaker_initials"

// SpeakerSummary 演讲者及其视频数量
type SpeakerSummary struct {
	ID         uint
	Name       string
	Slug       string
	VideoCount int64
}

// AbsoluteURL 站内路径
func (s SpeakerSummary) AbsoluteURL() string {
	sp := models.Speaker{ID: s.ID, Slug: s.Slug}
	return sp.AbsoluteURL()
}

// VideoEdit 编辑表单允许修改的字段
type VideoEdit struct {
	Title   string `form:"title" binding:"required,max=300"`
	Summary string `form:"summary" binding:"max=10000"`
}

// CatalogService 分类、演讲者、视频的查询
type CatalogService struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
}

// NewCatalogService 创建目录服务
func NewCatalogService(db *gorm.DB, c cache.Cache, ttl time.Duration) *CatalogService {
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return &CatalogService{db: db, cache: c, ttl: ttl}
}

// live 只保留已发布视频
func live(db *gorm.DB) *gorm.DB {
	return db.Where("videos.state = ?", models.StateLive)
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("查询%s失败: %w", what, err)
}

// CategoriesByTitle 全部分类，按标题排序
func (s *CatalogService) CategoriesByTitle(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("title").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("查询分类失败: %w", err)
	}
	return categories, nil
}

// Category 按ID查询分类
func (s *CatalogService) Category(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err, "category")
	}
	return &category, nil
}

// LiveVideosInCategory 分类下已发布的视频
func (s *CatalogService) LiveVideosInCategory(ctx context.Context, categoryID uint) ([]models.Video, error) {
	var videos []models.Video
	err := live(s.db.WithContext(ctx)).
		Where("videos.category_id = ?", categoryID).
		Preload("Category").
		Preload("Speakers").
		Order("videos.title").
		Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("查询分类视频失败: %w", err)
	}
	return videos, nil
}

// SpeakerInitials 所有演讲者姓名首字母（小写、去重、排序），结果会被缓存
func (s *CatalogService) SpeakerInitials(ctx context.Context) ([]string, error) {
	if chars, ok := s.cache.Get(ctx, speakerInitialsKey); ok {
		return chars, nil
	}

	var names []string
	if err := s.db.WithContext(ctx).Model(&models.Speaker{}).Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("查询演讲者失败: %w", err)
	}

	seen := make(map[string]struct{})
	chars := make([]string, 0)
	for _, name := range names {
		r, _ := utf8.DecodeRuneInString(name)
		if r == utf8.RuneError {
			continue
		}
		c := string(unicode.ToLower(r))
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		chars = append(chars, c)
	}
	sort.Strings(chars)

	s.cache.Set(ctx, speakerInitialsKey, chars, s.ttl)
	return chars, nil
}

// InvalidateSpeakerInitials 清除首字母缓存
func (s *CatalogService) InvalidateSpeakerInitials(ctx context.Context) {
	s.cache.Delete(ctx, speakerInitialsKey)
}

// SpeakersByInitial 姓名以 initial 开头（不区分大小写）的演讲者及视频数
func (s *CatalogService) SpeakersByInitial(ctx context.Context, initial string) ([]SpeakerSummary, error) {
	var rows []SpeakerSummary
	err := s.db.WithContext(ctx).
		Model(&models.Speaker{}).
		Select("speakers.id, speakers.name, speakers.slug, COUNT(video_speakers.video_id) AS video_count").
		Joins("LEFT JOIN video_speakers ON video_speakers.speaker_id = speakers.id").
		// SQLite 的 LOWER 只处理 ASCII，两种大小写分别匹配
		Where(`(speakers.name LIKE ? ESCAPE '\' OR speakers.name LIKE ? ESCAPE '\')`,
			escapeLike(strings.ToLower(initial))+"%", escapeLike(strings.ToUpper(initial))+"%").
		Group("speakers.id, speakers.name, speakers.slug").
		Order("speakers.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询演讲者失败: %w", err)
	}
	return rows, nil
}

// Speaker 按ID查询演讲者
func (s *CatalogService) Speaker(ctx context.Context, id uint) (*models.Speaker, error) {
	var speaker models.Speaker
	if err := s.db.WithContext(ctx).First(&speaker, id).Error; err != nil {
		return nil, notFound(err, "speaker")
	}
	return &speaker, nil
}

// LiveVideosBySpeaker 演讲者已发布的视频
func (s *CatalogService) LiveVideosBySpeaker(ctx context.Context, speakerID uint) ([]models.Video, error) {
	var videos []models.Video
	err := live(s.db.WithContext(ctx)).
		Joins("JOIN video_speakers ON video_speakers.video_id = videos.id").
		Where("video_speakers.speaker_id = ?", speakerID).
		Preload("Category").
		Preload("Speakers").
		Order("videos.title").
		Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("查询演讲者视频失败: %w", err)
	}
	return videos, nil
}

// Video 按ID查询视频（含标签、演讲者、分类），不区分发布状态
func (s *CatalogService) Video(ctx context.Context, id uint) (*models.Video, error) {
	var video models.Video
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Speakers").
		Preload("Tags").
		First(&video, id).Error
	if err != nil {
		return nil, notFound(err, "video")
	}
	return &video, nil
}

// VideoBySourceURL 按来源地址精确查找视频，多条时取ID最小的
func (s *CatalogService) VideoBySourceURL(ctx context.Context, sourceURL string) (*models.Video, error) {
	var video models.Video
	err := s.db.WithContext(ctx).
		Where("source_url = ?", sourceURL).
		Order("id").
		First(&video).Error
	if err != nil {
		return nil, notFound(err, "video")
	}
	return &video, nil
}

// UpdateVideo 更新标题和简介
func (s *CatalogService) UpdateVideo(ctx context.Context, id uint, edit VideoEdit) (*models.Video, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":   strings.TrimSpace(edit.Title),
			"summary": edit.Summary,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("更新视频失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("video: %w", ErrNotFound)
	}
	return s.Video(ctx, id)
}

// LiveVideos 全部已发布视频，用于重建索引
func (s *CatalogService) LiveVideos(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	err := live(s.db.WithContext(ctx)).
		Preload("Category").
		Preload("Speakers").
		Preload("Tags").
		Order("videos.id").
		Find(&videos).Error
	if err != nil {
		return nil, fmt.Errorf("查询视频失败: %w", err)
	}
	return videos, nil
}

// Ping 检查数据库连接
func (s *CatalogService) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
