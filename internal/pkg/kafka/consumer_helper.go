package kafka

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

const (
	batchSize    = 32
	batchTimeout = 1 * time.Second

	initialRetryInterval = 100 * time.Millisecond
	maxRetryInterval     = 5 * time.Second
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 拉取一批消息并执行业务逻辑
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 并发处理一批消息，全部成功后提交最后一条的位点
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	var wg sync.WaitGroup

	for _, msg := range messages {
		wg.Add(1)
		go func(m *sarama.ConsumerMessage) {
			defer wg.Done()
			runWithRetry(session.Context(), m, logic)
		}(msg)
	}

	wg.Wait()

	if len(messages) > 0 {
		session.MarkMessage(messages[len(messages)-1], "")
	}
}

// runWithRetry 指数退避重试直到成功或上下文结束
func runWithRetry(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) {
	retryInterval := initialRetryInterval
	for {
		err := logic(ctx, m)
		if err == nil {
			return
		}
		log.ErrorContext(ctx, "process message error",
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset,
			"err", err,
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryInterval):
		}

		retryInterval *= 2
		if retryInterval > maxRetryInterval {
			retryInterval = maxRetryInterval
		}
	}
}
