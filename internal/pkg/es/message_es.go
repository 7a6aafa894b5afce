package es

import (
	"Courier/internal/model"
	"time"
)

// MessageES 写入 ES 的消息文档，仅包含检索需要的字段
type MessageES struct {
	MessageID       string    `json:"message_id"`
	ConversationKey string    `json:"conversation_key"`
	DisplayName     string    `json:"display_name"`
	Direction       string    `json:"direction"`
	Content         string    `json:"content"`
	ContentType     string    `json:"content_type"`
	Status          string    `json:"status"`
	IsDeleted       bool      `json:"is_deleted"`
	Timestamp       time.Time `json:"timestamp"`
}

func NewMessageES(m *model.Message) *MessageES {
	return &MessageES{
		MessageID:       m.ID.Hex(),
		ConversationKey: m.ConversationKey,
		DisplayName:     m.DisplayName,
		Direction:       string(m.Direction),
		Content:         m.Content,
		ContentType:     string(m.ContentType),
		Status:          string(m.Status),
		IsDeleted:       m.IsDeleted,
		Timestamp:       m.Timestamp,
	}
}
