package models

import (
	"fmt"
	"time"
)

// 视频状态
const (
	StateLive  = 1 // 已发布
	StateDraft = 2 // 草稿
)

// Video 视频模型
type Video struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `gorm:"size:300;not null;index" json:"title"`
	Slug        string `gorm:"size:50" json:"slug"`
	Summary     string `gorm:"type:text" json:"summary"`
	Description string `gorm:"type:text" json:"description"`
	State       int    `gorm:"index;default:1" json:"state"`

	// 来源信息
	SourceURL string `gorm:"size:255;index" json:"source_url"`
	Embed     string `gorm:"type:text" json:"embed"` // 自定义嵌入代码

	// 关联
	CategoryID uint      `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Speakers   []Speaker `gorm:"many2many:video_speakers" json:"speakers,omitempty"`
	Tags       []Tag     `gorm:"many2many:video_tags" json:"tags,omitempty"`

	// 各格式的播放地址
	VideoOGVURL           string `gorm:"size:255" json:"video_ogv_url"`
	VideoOGVDownloadOnly  bool   `json:"video_ogv_download_only"`
	VideoMP4URL           string `gorm:"size:255" json:"video_mp4_url"`
	VideoMP4DownloadOnly  bool   `json:"video_mp4_download_only"`
	VideoWebMURL          string `gorm:"size:255" json:"video_webm_url"`
	VideoWebMDownloadOnly bool   `json:"video_webm_download_only"`
	VideoFLVURL           string `gorm:"size:255" json:"video_flv_url"`
	VideoFLVDownloadOnly  bool   `json:"video_flv_download_only"`

	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// TableName 指定表名
func (Video) TableName() string {
	return "videos"
}

// Format 一种编码格式的描述
type Format struct {
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
	Display  string `json:"display"`
}

// AvailableFormats 返回已有的格式，顺序固定为 ogv, mp4, webm, flv。
// html5 为 true 时跳过仅供下载的格式以及 flv。
func (v *Video) AvailableFormats(html5 bool) []Format {
	candidates := []struct {
		format       Format
		downloadOnly bool
		html5Capable bool
	}{
		{Format{MimeType: "video/ogg", URL: v.VideoOGVURL, Display: "OGV"}, v.VideoOGVDownloadOnly, true},
		{Format{MimeType: "video/mp4", URL: v.VideoMP4URL, Display: "MP4"}, v.VideoMP4DownloadOnly, true},
		{Format{MimeType: "video/webm", URL: v.VideoWebMURL, Display: "WebM"}, v.VideoWebMDownloadOnly, true},
		{Format{MimeType: "video/x-flv", URL: v.VideoFLVURL, Display: "FLV"}, v.VideoFLVDownloadOnly, false},
	}

	formats := make([]Format, 0, len(candidates))
	for _, c := range candidates {
		if c.format.URL == "" {
			continue
		}
		if html5 && (c.downloadOnly || !c.html5Capable) {
			continue
		}
		formats = append(formats, c.format)
	}
	return formats
}

// IsLive 是否已发布
func (v *Video) IsLive() bool {
	return v.State == StateLive
}

// AbsoluteURL 站内路径
func (v *Video) AbsoluteURL() string {
	return fmt.Sprintf("/video/%d/%s/", v.ID, slugOrDefault(v.Slug))
}

// TagNames 标签文本列表
func (v *Video) TagNames() []string {
	names := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		names = append(names, t.Tag)
	}
	return names
}

func slugOrDefault(slug string) string {
	if slug == "" {
		return "-"
	}
	return slug
}
