package dto

import "time"

// SendMessageReq 本地用户发送消息请求体
type SendMessageReq struct {
	ConversationKey string `json:"conversationKey" validate:"required,max=128"`
	Content         string `json:"content" validate:"required,max=4096"`
	ContentType     string `json:"contentType" validate:"omitempty,oneof=text image audio video document location contact sticker"`
	MediaURL        string `json:"mediaUrl" validate:"omitempty,url"`
	MediaMimeType   string `json:"mediaMimeType" validate:"omitempty,max=128"`
	DisplayName     string `json:"displayName" validate:"omitempty,max=128"`
	ReplyToID       string `json:"replyToId" validate:"omitempty,max=128"`
}

// ListMessagesQuery 会话消息分页参数，Before 为锚点消息 id（不含）
type ListMessagesQuery struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1"`
	Before   string `form:"before" validate:"omitempty,max=128"`
}

// SearchQuery 消息检索参数
type SearchQuery struct {
	Q            string `form:"q" validate:"required,max=256"`
	Conversation string `form:"conversation" validate:"omitempty,max=128"`
	Page         int    `form:"page" validate:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID              string     `json:"id"`
	ConversationKey string     `json:"conversationKey"`
	DisplayName     string     `json:"displayName"`
	ContactNumber   string     `json:"contactNumber,omitempty"`
	PrimaryID       string     `json:"primaryId,omitempty"`
	SecondaryID     string     `json:"secondaryId,omitempty"`
	Direction       string     `json:"direction"`
	Counterpart     string     `json:"counterpart"`
	Content         string     `json:"content"`
	ContentType     string     `json:"contentType"`
	MediaURL        string     `json:"mediaUrl,omitempty"`
	MediaMimeType   string     `json:"mediaMimeType,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	Status          string     `json:"status"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
	ReadAt          *time.Time `json:"readAt,omitempty"`
	IsDeleted       bool       `json:"isDeleted"`
	IsStarred       bool       `json:"isStarred"`
	ReplyPreview    string     `json:"replyPreview,omitempty"`
	ReplyToID       string     `json:"replyToId,omitempty"`
}

// ConversationDTO 会话列表项响应
type ConversationDTO struct {
	ConversationKey        string    `json:"conversationKey"`
	DisplayName            string    `json:"displayName"`
	ContactNumber          string    `json:"contactNumber,omitempty"`
	LastMessageContent     string    `json:"lastMessageContent"`
	LastMessageContentType string    `json:"lastMessageContentType"`
	LastTimestamp          time.Time `json:"lastTimestamp"`
	LastStatus             string    `json:"lastStatus"`
	LastDirection          string    `json:"lastDirection"`
	UnreadCount            int       `json:"unreadCount"`
	TotalMessages          int       `json:"totalMessages"`
}

// MessagePage 分页结果，消息按时间正序
type MessagePage struct {
	Messages []*MessageDTO `json:"messages"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Total    int64         `json:"total"`
	HasMore  bool          `json:"hasMore"`
}

// MarkReadResult 标记已读结果
type MarkReadResult struct {
	ConversationKey string `json:"conversationKey"`
	Updated         int    `json:"updated"`
}

// SearchHitDTO 检索命中
type SearchHitDTO struct {
	MessageID       string    `json:"messageId"`
	ConversationKey string    `json:"conversationKey"`
	DisplayName     string    `json:"displayName"`
	Direction       string    `json:"direction"`
	Content         string    `json:"content"`
	ContentType     string    `json:"contentType"`
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
}
