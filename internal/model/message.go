package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocalUser 本地用户的保留标识
const LocalUser = "me"

// MaxContentLength 消息正文最大长度（按字符计）
const MaxContentLength = 4096

// MaxReplyPreviewLength 引用预览最大长度
const MaxReplyPreviewLength = 100

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Message 规范化后的消息记录，存储于 MongoDB messages 集合
type Message struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationKey string             `bson:"conversation_key" json:"conversationKey"`
	DisplayName     string             `bson:"display_name" json:"displayName"`
	ContactNumber   string             `bson:"contact_number,omitempty" json:"contactNumber,omitempty"`
	PrimaryID       string             `bson:"primary_id,omitempty" json:"primaryId,omitempty"`
	SecondaryID     string             `bson:"secondary_id,omitempty" json:"secondaryId,omitempty"`
	TransportID     string             `bson:"transport_id,omitempty" json:"transportId,omitempty"`
	Direction       Direction          `bson:"direction" json:"direction"`
	Counterpart     string             `bson:"counterpart" json:"counterpart"`
	Content         string             `bson:"content" json:"content"`
	ContentType     ContentType        `bson:"content_type" json:"contentType"`
	MediaURL        string             `bson:"media_url,omitempty" json:"mediaUrl,omitempty"`
	MediaMimeType   string             `bson:"media_mime_type,omitempty" json:"mediaMimeType,omitempty"`
	Timestamp       time.Time          `bson:"timestamp" json:"timestamp"`
	Status          Status             `bson:"status" json:"status"`
	DeliveredAt     *time.Time         `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	ReadAt          *time.Time         `bson:"read_at,omitempty" json:"readAt,omitempty"`
	IsDeleted       bool               `bson:"is_deleted" json:"isDeleted"`
	IsStarred       bool               `bson:"is_starred" json:"isStarred"`
	ReplyPreview    string             `bson:"reply_preview,omitempty" json:"replyPreview,omitempty"`
	ReplyToID       string             `bson:"reply_to_id,omitempty" json:"replyToId,omitempty"`
	RawOriginal     string             `bson:"raw_original,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
}

// Identifiers 返回消息自身携带的全部外部标识
func (m *Message) Identifiers() Identifiers {
	return Identifiers{
		Primary:   m.PrimaryID,
		Secondary: m.SecondaryID,
		Transport: m.TransportID,
	}
}

// IsUnread 入站且未读
func (m *Message) IsUnread() bool {
	return m.Direction == DirectionIncoming && m.Status != StatusRead
}

// ConversationSummary 会话摘要，由消息实时推导，不作为事实来源持久化
type ConversationSummary struct {
	ConversationKey        string      `json:"conversationKey"`
	DisplayName            string      `json:"displayName"`
	ContactNumber          string      `json:"contactNumber,omitempty"`
	LastMessageContent     string      `json:"lastMessageContent"`
	LastMessageContentType ContentType `json:"lastMessageContentType"`
	LastTimestamp          time.Time   `json:"lastTimestamp"`
	LastStatus             Status      `json:"lastStatus"`
	LastDirection          Direction   `json:"lastDirection"`
	UnreadCount            int         `json:"unreadCount"`
	TotalMessages          int         `json:"totalMessages"`
}

// DefaultDisplayName 无法解析名称时的占位名称
func DefaultDisplayName(key string) string {
	return "User " + key
}
