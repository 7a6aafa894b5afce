package redis

import (
	"Courier/internal/pkg/broadcast"
	"Courier/internal/pkg/consts"
	"context"

	"github.com/goccy/go-json"
)

// EventPublisher 将事件发布到会话频道，同时通知会话列表频道
type EventPublisher struct{}

func NewEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

func (s *EventPublisher) Name() string { return "redis" }

func (s *EventPublisher) Publish(ctx context.Context, ev broadcast.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pipe := Rdb.Pipeline()
	pipe.Publish(ctx, ConversationChannel(ev.ConversationKey), data)
	pipe.Publish(ctx, consts.IMConversationListKey, data)
	_, err = pipe.Exec(ctx)
	return err
}

// ConversationChannel 会话的订阅频道
func ConversationChannel(key string) string {
	return consts.IMConversationKey + key
}
