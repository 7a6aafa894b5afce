package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware 处理跨域请求，前端会话界面与 API 可能不同源
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.Request.Header.Get("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Trace-ID, X-Webhook-Token")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type, X-Trace-ID")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		// 预检请求
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
