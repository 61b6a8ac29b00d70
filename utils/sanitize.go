package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripTags 去掉所有 HTML 标签和属性，只保留文本。
// 返回的是纯文本，实体已还原，由模板负责转义。
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
