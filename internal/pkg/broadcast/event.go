package broadcast

import (
	"Courier/internal/model"
	"context"
	"time"
)

type EventKind string

const (
	KindMessageCreated EventKind = "message.created"
	KindStatusChanged  EventKind = "message.status"
	KindMessageUpdated EventKind = "message.updated"
)

// Event 推送给会话订阅方的事件，按 ConversationKey 寻址
type Event struct {
	Kind            EventKind      `json:"type"`
	ConversationKey string         `json:"conversationKey"`
	Message         *model.Message `json:"message,omitempty"`
	MessageID       string         `json:"messageId,omitempty"`
	Echo            string         `json:"echo,omitempty"`
	Status          model.Status   `json:"status,omitempty"`
	OccurredAt      time.Time      `json:"occurredAt"`
}

// Broadcaster 事件下游，投递语义为尽力而为
type Broadcaster interface {
	Name() string
	Publish(ctx context.Context, ev Event) error
}

// Emitter 业务层使用的事件出口，Emit 不阻塞调用方
type Emitter interface {
	Emit(ev Event)
}

func MessageCreated(m *model.Message) Event {
	return Event{
		Kind:            KindMessageCreated,
		ConversationKey: m.ConversationKey,
		Message:         m,
		MessageID:       m.ID.Hex(),
		Status:          m.Status,
		OccurredAt:      time.Now(),
	}
}

// StatusChanged echo 为回执中携带的原始标识，便于客户端对齐本地消息
func StatusChanged(m *model.Message, echo string, status model.Status) Event {
	return Event{
		Kind:            KindStatusChanged,
		ConversationKey: m.ConversationKey,
		MessageID:       m.ID.Hex(),
		Echo:            echo,
		Status:          status,
		OccurredAt:      time.Now(),
	}
}

func MessageUpdated(m *model.Message) Event {
	return Event{
		Kind:            KindMessageUpdated,
		ConversationKey: m.ConversationKey,
		Message:         m,
		MessageID:       m.ID.Hex(),
		Status:          m.Status,
		OccurredAt:      time.Now(),
	}
}

// NopEmitter 丢弃所有事件
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}
