package payload

import (
	"Courier/internal/model"
	"strings"
)

var (
	primaryIDPaths   = []string{"id", "msg_id", "message_id", "messageId"}
	secondaryIDPaths = []string{"meta_id", "metaId", "wamid", "transport_id", "transportId"}
	transportIDPaths = []string{"key.id", "keyId"}
	recordIDPaths    = []string{"_id", "record_id", "recordId"}

	partyIDPaths   = []string{"wa_id", "contact_id", "chat_id", "remote_jid", "remoteJid", "key.remoteJid"}
	senderPaths    = []string{"from", "sender", "author"}
	recipientPaths = []string{"to", "recipient", "recipient_id"}
)

// ExtractIdentifiers 收集一条消息或回执上的全部标识
func ExtractIdentifiers(o Object) model.Identifiers {
	return model.Identifiers{
		Primary:   o.Str(primaryIDPaths...),
		Secondary: o.Str(secondaryIDPaths...),
		Transport: o.Str(transportIDPaths...),
		Record:    o.Str(recordIDPaths...),
	}
}

// stripJID 去掉 JID 的服务器后缀，如 5511999@s.whatsapp.net
func stripJID(s string) string {
	if i := strings.IndexByte(s, '@'); i > 0 {
		return s[:i]
	}
	return s
}

func isLocalUser(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), model.LocalUser)
}

// conversationKeyOf 依次尝试对方标识、发送方，发送方为本地用户时改取接收方
func conversationKeyOf(o Object) string {
	if v := o.Str(partyIDPaths...); v != "" {
		return stripJID(v)
	}
	for _, p := range senderPaths {
		v := o.Str(p)
		if v == "" {
			continue
		}
		if isLocalUser(v) {
			if to := o.Str(recipientPaths...); to != "" && !isLocalUser(to) {
				return stripJID(to)
			}
			continue
		}
		return stripJID(v)
	}
	return ""
}
