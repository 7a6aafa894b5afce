package middleware

import (
	"Courier/internal/pkg/response"
	"crypto/subtle"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

// WebhookAuthMiddleware 校验网关携带的共享令牌，支持 X-Webhook-Token 头或 token 查询参数
func WebhookAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		got := c.GetHeader("X-Webhook-Token")
		if got == "" {
			got = c.Query("token")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			log.WarnContext(c.Request.Context(), "webhook token rejected", "client_ip", c.ClientIP())
			response.Status(c, response.Unauthorized, "Token 缺失或无效", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
