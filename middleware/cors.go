package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"videoindex/utils"
)

// CORS 跨域中间件，只对 /api 下的接口开放
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// AdminAuth 管理员认证中间件
// token 为空时管理接口整体关闭
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			utils.JSONError(c, http.StatusForbidden, "管理接口未启用")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.JSONError(c, http.StatusUnauthorized, "未提供认证信息")
			return
		}

		// 支持 "Bearer token" 和 "token" 两种格式
		got := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			utils.JSONError(c, http.StatusUnauthorized, "认证失败，无权限访问")
			return
		}

		c.Next()
	}
}
