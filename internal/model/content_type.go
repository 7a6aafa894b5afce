package model

import "strings"

type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentAudio    ContentType = "audio"
	ContentVideo    ContentType = "video"
	ContentDocument ContentType = "document"
	ContentLocation ContentType = "location"
	ContentContact  ContentType = "contact"
	ContentSticker  ContentType = "sticker"
)

// MediaPriority 同时出现多种媒体时的判定顺序
var MediaPriority = []ContentType{
	ContentImage,
	ContentAudio,
	ContentVideo,
	ContentDocument,
	ContentLocation,
	ContentContact,
	ContentSticker,
}

var contentTypeAliases = map[string]ContentType{
	"text":                ContentText,
	"chat":                ContentText,
	"conversation":        ContentText,
	"extendedtextmessage": ContentText,
	"image":               ContentImage,
	"imagemessage":        ContentImage,
	"audio":               ContentAudio,
	"audiomessage":        ContentAudio,
	"ptt":                 ContentAudio,
	"voice":               ContentAudio,
	"video":               ContentVideo,
	"videomessage":        ContentVideo,
	"document":            ContentDocument,
	"documentmessage":     ContentDocument,
	"file":                ContentDocument,
	"location":            ContentLocation,
	"locationmessage":     ContentLocation,
	"contact":             ContentContact,
	"contacts":            ContentContact,
	"contactmessage":      ContentContact,
	"vcard":               ContentContact,
	"sticker":             ContentSticker,
	"stickermessage":      ContentSticker,
}

// ParseContentType 解析内容类型，支持常见网关的别名
func ParseContentType(s string) (ContentType, bool) {
	ct, ok := contentTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return ct, ok
}

// IsMedia 除文本外均视为媒体
func (c ContentType) IsMedia() bool {
	return c != ContentText && c != ""
}
