package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/mssola/useragent"
)

// BrowserKey gin.Context 中浏览器名称的键
const BrowserKey = "browser"

// Browser 解析 User-Agent，把浏览器名称（如 "Firefox"）放进 context
func Browser() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := ""
		if ua := c.GetHeader("User-Agent"); ua != "" {
			name, _ = useragent.New(ua).Browser()
		}
		c.Set(BrowserKey, name)
		c.Next()
	}
}

// BrowserName 取出 Browser 中间件解析的浏览器名称
func BrowserName(c *gin.Context) string {
	return c.GetString(BrowserKey)
}
