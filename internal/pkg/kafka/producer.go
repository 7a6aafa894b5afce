package kafka

import (
	"Courier/internal/api/config"
	"Courier/internal/pkg/broadcast"
	"context"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// EventProducer 把消息事件写入 Kafka，按会话 key 分区以保证同一会话内有序
type EventProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewEventProducer(cfg *config.Config) (*EventProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, err
	}
	return &EventProducer{producer: producer, topic: cfg.KafkaEventProducer.Topic}, nil
}

func (s *EventProducer) Name() string { return "kafka" }

func (s *EventProducer) Publish(ctx context.Context, ev broadcast.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(ev.ConversationKey),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte(ev.Kind)},
		},
	})
	return err
}

func (s *EventProducer) Close() error {
	return s.producer.Close()
}
