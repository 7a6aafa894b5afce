package consts

const (
	MimePrefixImage = "image"
	MimePrefixAudio = "audio"
	MimePrefixVideo = "video"
)

const (
	// WebhookArchivePrefix 原始负载归档对象前缀
	WebhookArchivePrefix = "webhooks/"
	// LocalMessageIDPrefix 本地发送消息的 primary_id 前缀
	LocalMessageIDPrefix = "local-"
)
