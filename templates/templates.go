// Package templates 内嵌的页面模板
package templates

import (
	"embed"
	"html/template"
)

//go:embed html/*.html
var htmlFS embed.FS

// Load 解析全部页面模板，页面按文件名引用，如 "video.html"
func Load() *template.Template {
	return template.Must(template.New("").ParseFS(htmlFS, "html/*.html"))
}
