package api

import "Courier/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	WebhookHandler *handler.WebhookHandler
	IMHandler      *handler.IMHandler
	WSHandler      *handler.WsHandler
	ContactHandler *handler.ContactHandler
}
