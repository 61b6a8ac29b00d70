package services

import (
	"strings"

	"github.com/samber/lo"

	"videoindex/models"
)

// EmbedStrategy 播放器的嵌入方式
type EmbedStrategy string

const (
	EmbedSubtitles EmbedStrategy = "subtitle-enabled" // YouTube，需要字幕层
	EmbedCustom    EmbedStrategy = "custom-embed"     // 原样输出自定义代码
	EmbedHTML5     EmbedStrategy = "native-html5"     // <video> 标签
)

// FormatPolicy 浏览器 -> 允许的 MIME 后缀。不在表里的浏览器不过滤。
type FormatPolicy map[string][]string

// DefaultFormatPolicy Firefox 只播放无专利限制的格式
var DefaultFormatPolicy = FormatPolicy{
	"Firefox": {"ogg", "ogv", "webm"},
}

// Filter 按浏览器过滤格式，保持原有顺序
func (p FormatPolicy) Filter(browser string, formats []models.Format) []models.Format {
	suffixes, ok := p[browser]
	if !ok {
		return formats
	}
	return lo.Filter(formats, func(f models.Format, _ int) bool {
		return lo.SomeBy(suffixes, func(suffix string) bool {
			return strings.HasSuffix(f.MimeType, suffix)
		})
	})
}

// EmbedInput 决定嵌入方式所需的视频信息
type EmbedInput struct {
	SourceURL string
	Embed     string
	Formats   []models.Format
	Browser   string
}

// EmbedResult 嵌入方式和可播放格式
type EmbedResult struct {
	Strategy EmbedStrategy
	Embed    string
	Formats  []models.Format
}

// ResolveEmbed 选择嵌入方式并过滤可播放格式
func ResolveEmbed(in EmbedInput, policy FormatPolicy) EmbedResult {
	return EmbedResult{
		Strategy: selectStrategy(in.SourceURL, in.Embed),
		Embed:    in.Embed,
		Formats:  policy.Filter(in.Browser, in.Formats),
	}
}

func selectStrategy(sourceURL, embed string) EmbedStrategy {
	switch {
	case sourceURL != "" && strings.Contains(sourceURL, "youtube"):
		return EmbedSubtitles
	case embed != "":
		return EmbedCustom
	default:
		return EmbedHTML5
	}
}
