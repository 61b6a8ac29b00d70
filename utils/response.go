package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONError 统一错误响应
func JSONError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code": status,
		"msg":  msg,
	})
}

// NotFound 404 响应
func NotFound(c *gin.Context) {
	JSONError(c, http.StatusNotFound, "not found")
}
