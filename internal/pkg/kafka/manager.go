package kafka

import (
	"Courier/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理 webhook 消费者的生命周期
type ConsumerManager struct {
	webhookConsumer sarama.ConsumerGroup
	webhookHandler  sarama.ConsumerGroupHandler
	topic           string
}

func NewConsumerManager(cfg *config.Config, ingester Ingester) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	webhookConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaWebhookConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		webhookConsumer: webhookConsumer,
		webhookHandler:  NewWebhookHandler(ingester),
		topic:           cfg.KafkaWebhookConsumer.Topic,
	}, nil
}

// Start 阻塞直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.webhookConsumer.Errors() {
			log.Error("Webhook consumer error", "err", err)
		}
	}()

	go func() {
		log.Info("Webhook consumer started", "topic", m.topic)
		for {
			if err := m.webhookConsumer.Consume(ctx, []string{m.topic}, m.webhookHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.webhookConsumer.Close(); err != nil {
		log.Error("Failed to close webhook consumer", "err", err)
	}
	return nil
}
