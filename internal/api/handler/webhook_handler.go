package handler

import (
	"Courier/internal/pkg/payload"
	"Courier/internal/pkg/response"
	"Courier/internal/service"
	"bytes"
	"context"
	"io"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

// ArchiveFunc 原始负载归档，返回对象名
type ArchiveFunc func(ctx context.Context, raw []byte) (string, error)

type WebhookHandler struct {
	ingestService service.IngestService
	archive       ArchiveFunc
}

// NewWebhookHandler archive 为 nil 时不归档
func NewWebhookHandler(ingestService service.IngestService, archive ArchiveFunc) *WebhookHandler {
	return &WebhookHandler{ingestService: ingestService, archive: archive}
}

// Receive webhook 入口，HTTP 状态码反映处理结果，网关据此决定是否重投
func (s *WebhookHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Status(c, response.BadRequest, "读取请求体失败", nil)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		response.Status(c, response.BadRequest, "请求体为空", nil)
		return
	}

	if s.archive != nil {
		// 归档失败不影响入库
		if objectName, err := s.archive(ctx, body); err != nil {
			log.WarnContext(ctx, "archive webhook payload failed", "err", err)
		} else {
			log.DebugContext(ctx, "webhook payload archived", "object", objectName)
		}
	}

	raw, err := payload.Decode(body)
	if err != nil {
		log.WarnContext(ctx, "malformed webhook payload", "size", len(body), "err", err)
		response.Status(c, response.BadRequest, "Json错误", nil)
		return
	}

	res, err := s.ingestService.Ingest(ctx, raw)
	if err != nil {
		response.ErrorStatus(c, err, res)
		return
	}
	if res.NothingMatched() {
		response.Status(c, response.NotFound, "没有匹配的消息", res)
		return
	}
	response.Success(c, res)
}
