package payload

import (
	"Courier/internal/model"
	"Courier/internal/pkg/consts"
	"fmt"
	"strings"
)

// rawFallbackLimit 原始 JSON 兜底内容的最大长度
const rawFallbackLimit = 1000

var textPaths = []string{
	"text.body",
	"conversation",
	"extendedTextMessage.text",
	"message.conversation",
	"message.extendedTextMessage.text",
	"content",
	"text",
	"body",
	"caption",
	"message",
}

var declaredTypePaths = []string{"type", "content_type", "contentType", "messageType", "message_type"}

// mediaKeys 每种媒体可能出现的子对象字段名
var mediaKeys = map[model.ContentType][]string{
	model.ContentImage:    {"image", "imageMessage"},
	model.ContentAudio:    {"audio", "audioMessage", "voice"},
	model.ContentVideo:    {"video", "videoMessage"},
	model.ContentDocument: {"document", "documentMessage"},
	model.ContentLocation: {"location", "locationMessage"},
	model.ContentContact:  {"contact", "contactMessage"},
	model.ContentSticker:  {"sticker", "stickerMessage"},
}

// Content 提取出的正文与媒体信息
type Content struct {
	Text     string
	Type     model.ContentType
	MediaURL string
	MimeType string
}

// mediaSources 媒体子对象可能位于消息本身或其 message 字段下
func mediaSources(entry Object) []Object {
	srcs := []Object{entry}
	if inner := entry.Obj("message"); inner != nil {
		srcs = append(srcs, inner)
	}
	return srcs
}

func findMedia(entry Object, ct model.ContentType) Object {
	for _, src := range mediaSources(entry) {
		if obj := src.Obj(mediaKeys[ct]...); obj != nil {
			return obj
		}
	}
	if ct == model.ContentContact {
		return contactCard(entry)
	}
	return nil
}

// contactCard contacts 数组也承载发送方资料，仅在没有正文且不带 profile 时视为名片
func contactCard(entry Object) Object {
	card := entry.Obj("contacts.0")
	if card == nil || card.Has("profile") || entry.Str(textPaths...) != "" {
		return nil
	}
	return card
}

// declaredType 显式声明的内容类型
func declaredType(entry Object) (model.ContentType, bool) {
	for _, p := range declaredTypePaths {
		if ct, ok := model.ParseContentType(entry.Str(p)); ok {
			return ct, true
		}
	}
	return "", false
}

// ResolveContentType 显式类型且存在对应媒体对象时直接采用；
// 否则按优先级取第一个出现的媒体对象，媒体的存在覆盖泛化的声明类型
func ResolveContentType(entry Object) (model.ContentType, Object) {
	declared, hasDeclared := declaredType(entry)
	if hasDeclared && declared.IsMedia() {
		if media := findMedia(entry, declared); media != nil {
			return declared, media
		}
	}
	for _, ct := range model.MediaPriority {
		if media := findMedia(entry, ct); media != nil {
			return ct, media
		}
	}
	if generic := entry.Obj("media", "attachment"); generic != nil {
		if ct, ok := typeFromMime(generic.Str("mime_type", "mimetype", "mimeType")); ok {
			return ct, generic
		}
	}
	if hasDeclared {
		return declared, nil
	}
	return model.ContentText, nil
}

// typeFromMime 通用附件对象按 MIME 前缀推断类型
func typeFromMime(mime string) (model.ContentType, bool) {
	switch {
	case mime == "":
		return "", false
	case strings.HasPrefix(mime, consts.MimePrefixImage):
		return model.ContentImage, true
	case strings.HasPrefix(mime, consts.MimePrefixAudio):
		return model.ContentAudio, true
	case strings.HasPrefix(mime, consts.MimePrefixVideo):
		return model.ContentVideo, true
	default:
		return model.ContentDocument, true
	}
}

// ExtractContent 提取正文，保证结果非空
func ExtractContent(entry Object) Content {
	ct, media := ResolveContentType(entry)
	c := Content{Type: ct}
	if media != nil {
		c.MediaURL = media.Str("link", "url")
		c.MimeType = media.Str("mime_type", "mimetype", "mimeType")
	}

	c.Text = entry.Str(textPaths...)
	if c.Text == "" && media != nil {
		c.Text = media.Str("caption")
	}
	if c.Text == "" && ct.IsMedia() {
		c.Text = mediaMarker(ct, media)
	}
	if c.Text == "" {
		c.Text = truncateRunes(Snapshot(entry), rawFallbackLimit)
	}
	if c.Text == "" {
		c.Text = "[" + string(ct) + "]"
	}
	c.Text = truncateRunes(c.Text, model.MaxContentLength)
	return c
}

func mediaMarker(ct model.ContentType, media Object) string {
	marker := fmt.Sprintf("[%s]", ct)
	if media == nil {
		return marker
	}
	switch ct {
	case model.ContentDocument:
		if name := media.Str("filename", "fileName", "title"); name != "" {
			return marker + " " + name
		}
	case model.ContentLocation:
		if name := media.Str("name", "address"); name != "" {
			return marker + " " + name
		}
		lat, lng := media.Str("latitude", "degreesLatitude"), media.Str("longitude", "degreesLongitude")
		if lat != "" && lng != "" {
			return fmt.Sprintf("%s %s,%s", marker, lat, lng)
		}
	case model.ContentContact:
		if name := media.Str("name.formatted_name", "displayName", "name"); name != "" {
			return marker + " " + name
		}
	}
	return marker
}
