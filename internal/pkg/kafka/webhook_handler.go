package kafka

import (
	"Courier/internal/api/dto"
	"Courier/internal/pkg/logger"
	"Courier/internal/pkg/payload"
	"context"
	"errors"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Ingester 消费端依赖的入库入口
type Ingester interface {
	Ingest(ctx context.Context, raw any) (*dto.BatchResult, error)
}

// WebhookHandler 从 topic 消费原始 webhook 负载，与 HTTP 入口走同一条入库流程
type WebhookHandler struct {
	ingester Ingester
}

func NewWebhookHandler(ingester Ingester) *WebhookHandler {
	return &WebhookHandler{ingester: ingester}
}

func (s *WebhookHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("webhook consumer setup")
	return nil
}

func (s *WebhookHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("webhook consumer cleanup")
	return nil
}

func (s *WebhookHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-webhook consume claim", "topic", claim.Topic(), "partition", claim.Partition())
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-webhook process batch error", "err", err)
		return err
	}
	return nil
}

// logic 无法解析的负载直接跳过，只有存储类错误才返回以触发重试
func (s *WebhookHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ctx = logger.WithTraceID(ctx, uuid.NewString())

	raw, err := payload.Decode(msg.Value)
	if err != nil {
		log.WarnContext(ctx, "skip malformed webhook payload", "offset", msg.Offset, "err", err)
		return nil
	}

	result, err := s.ingester.Ingest(ctx, raw)
	if err != nil {
		if errors.Is(err, payload.ErrUnrecognizedPayload) {
			log.WarnContext(ctx, "skip unrecognized webhook payload", "offset", msg.Offset)
			return nil
		}
		return err
	}

	log.InfoContext(ctx, "webhook payload ingested",
		"offset", msg.Offset,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"duplicates", result.Duplicates,
		"errors", result.Errors,
	)
	return nil
}
