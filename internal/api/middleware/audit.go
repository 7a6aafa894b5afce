package middleware

import (
	"Courier/internal/pkg/logger"
	"Courier/internal/pkg/response"
	"bytes"
	"errors"
	"io"
	log "log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// 审计日志中请求体与响应体的截断长度
const auditBodyLimit = 8192

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if room := auditBodyLimit - r.body.Len(); room > 0 {
		if len(b) > room {
			r.body.Write(b[:room])
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseBodyWriter) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func clip(b []byte) string {
	if len(b) > auditBodyLimit {
		return string(b[:auditBodyLimit]) + "...(truncated)"
	}
	return string(b)
}

// AuditMiddleware 记录请求与响应；websocket 升级请求不包装 ResponseWriter
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		var reqBody []byte
		if c.Request.Body != nil {
			var err error
			reqBody, err = io.ReadAll(c.Request.Body)
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				log.WarnContext(ctx, "request body too large", "limit", tooLarge.Limit, "path", c.Request.URL.Path)
				response.Status(c, response.PayloadTooLarge, "请求体过大", nil)
				c.Abort()
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		log.InfoContext(ctx, "Recv Request",
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.String("query", logger.RedactQuery(c.Request.URL.RawQuery)),
			log.Int("req_size", len(reqBody)),
			log.String("req_body", clip(reqBody)),
		)

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		startTime := time.Now()

		c.Next()

		log.InfoContext(ctx, "Send Response",
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(startTime)),
			log.String("res_body", w.body.String()),
		)
	}
}
