package payload

import (
	"Courier/internal/model"
	"strings"
	"time"
)

var (
	namePaths          = []string{"name", "push_name", "pushName", "profile_name", "notify", "sender_name"}
	profileNamePaths   = []string{"profile.name", "contacts.0.profile.name", "contact.profile.name"}
	contactNumberPaths = []string{"contact_number", "phone", "wa_id", "contacts.0.wa_id"}
	quotedPaths        = []string{
		"quoted",
		"quoted_message",
		"quotedMessage",
		"context.quoted_message",
		"contextInfo.quotedMessage",
		"message.extendedTextMessage.contextInfo.quotedMessage",
	}
)

// Normalize 将一条类消息对象转换为待持久化的消息草稿
func Normalize(entry, parent Object, now time.Time) (*model.Message, error) {
	key := conversationKeyOf(entry)
	if key == "" {
		key = conversationKeyOf(parent)
	}
	if key == "" {
		return nil, ErrUnresolvableConversation
	}

	content := ExtractContent(entry)
	ids := ExtractIdentifiers(entry)
	if ids.Primary == "" && ids.Secondary == "" && ids.Transport == "" && parent != nil {
		// 部分网关把消息 id 放在外层 key.id
		ids.Transport = parent.Str(transportIDPaths...)
	}

	msg := &model.Message{
		ConversationKey: key,
		DisplayName:     displayNameOf(entry, parent, key),
		ContactNumber:   firstNonEmpty(entry.Str(contactNumberPaths...), parent.Str(contactNumberPaths...)),
		PrimaryID:       ids.Primary,
		SecondaryID:     firstNonEmpty(ids.Secondary, ids.Transport),
		TransportID:     ids.Transport,
		Direction:       directionOf(entry, parent),
		Counterpart:     counterpartOf(entry, parent),
		Content:         content.Text,
		ContentType:     content.Type,
		Timestamp:       timestampOf(entry, parent, now),
		Status:          statusOf(entry, parent),
		ReplyPreview:    replyPreviewOf(entry),
		ReplyToID:       entry.Str("context.id", "context.message_id", "contextInfo.stanzaId", "reply_to"),
		RawOriginal:     Snapshot(entry),
		CreatedAt:       now,
	}
	if content.Type.IsMedia() {
		msg.MediaURL = content.MediaURL
		msg.MediaMimeType = content.MimeType
	}
	return msg, nil
}

func displayNameOf(entry, parent Object, key string) string {
	if v := entry.Str(namePaths...); v != "" {
		return v
	}
	if v := parent.Str(namePaths...); v != "" {
		return v
	}
	if v := firstNonEmpty(entry.Str(profileNamePaths...), parent.Str(profileNamePaths...)); v != "" {
		return v
	}
	return model.DefaultDisplayName(key)
}

// directionOf 任一来源出现本地用户标记即判定为外发
func directionOf(entry, parent Object) model.Direction {
	if isLocalUser(entry.Str("from")) ||
		isLocalUser(parent.Str("from")) ||
		isLocalUser(entry.Str("direction")) ||
		isLocalUser(entry.Str("sender")) {
		return model.DirectionOutgoing
	}
	switch strings.ToLower(entry.Str("direction")) {
	case "outgoing", "outbound", "out":
		return model.DirectionOutgoing
	}
	if entry.Bool("fromMe", "from_me", "key.fromMe") || parent.Bool("key.fromMe") {
		return model.DirectionOutgoing
	}
	return model.DirectionIncoming
}

func counterpartOf(entry, parent Object) string {
	if v := firstNonEmpty(entry.Str(recipientPaths...), parent.Str(recipientPaths...)); v != "" {
		return stripJID(v)
	}
	return model.LocalUser
}

func statusOf(entry, parent Object) model.Status {
	for _, src := range []Object{entry, parent} {
		if st, ok := model.ParseStatus(src.Str("status")); ok {
			return st
		}
	}
	return model.StatusSent
}

func replyPreviewOf(entry Object) string {
	quoted := entry.Obj(quotedPaths...)
	if quoted == nil {
		return ""
	}
	text := quoted.Str(textPaths...)
	if text == "" {
		ct, media := ResolveContentType(quoted)
		if !ct.IsMedia() {
			return ""
		}
		text = mediaMarker(ct, media)
	}
	return truncateRunes(text, model.MaxReplyPreviewLength)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
