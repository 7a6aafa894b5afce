package job

import (
	"Courier/internal/api/config"
	"Courier/internal/model"
	"Courier/internal/pkg/consts"
	"Courier/internal/pkg/logger"
	"Courier/internal/pkg/redis"
	"Courier/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	deliveryBatchSize = 200
	deliveryLockTTL   = 30 * time.Second
)

// DeliverySimulationJob 本地发送的消息没有真实网关回执，按配置的时延推进 sent -> delivered -> read
type DeliverySimulationJob struct {
	messageSvc     service.MessageService
	deliveredAfter time.Duration
	readAfter      time.Duration
}

func NewDeliverySimulationJob(messageSvc service.MessageService, cfg config.DeliveryConfig) *DeliverySimulationJob {
	return &DeliverySimulationJob{
		messageSvc:     messageSvc,
		deliveredAfter: time.Duration(cfg.DeliveredAfter) * time.Second,
		readAfter:      time.Duration(cfg.ReadAfter) * time.Second,
	}
}

func (s *DeliverySimulationJob) Run() {
	traceID := "job-delivery-" + uuid.NewString()
	ctx := logger.WithTraceID(context.Background(), traceID)

	// 多实例部署时只允许一个实例执行
	locked, err := redis.TryLock(ctx, consts.DeliverySimulationLock, traceID, deliveryLockTTL, 1)
	if err != nil {
		log.ErrorContext(ctx, "acquire delivery simulation lock error", "err", err)
		return
	}
	if !locked {
		return
	}
	defer redis.UnLock(ctx, consts.DeliverySimulationLock, traceID)

	s.run(ctx)
}

func (s *DeliverySimulationJob) run(ctx context.Context) {
	delivered, err := s.messageSvc.AdvanceOutgoing(ctx, model.StatusSent, model.StatusDelivered, s.deliveredAfter, deliveryBatchSize)
	if err != nil {
		log.ErrorContext(ctx, "advance outgoing messages to delivered error", "err", err)
	}

	read, err := s.messageSvc.AdvanceOutgoing(ctx, model.StatusDelivered, model.StatusRead, s.readAfter, deliveryBatchSize)
	if err != nil {
		log.ErrorContext(ctx, "advance outgoing messages to read error", "err", err)
	}

	if delivered > 0 || read > 0 {
		log.InfoContext(ctx, "delivery simulation finished", "delivered", delivered, "read", read)
	}
}
