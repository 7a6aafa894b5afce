package api

import (
	"Courier/internal/api/config"
	"Courier/internal/api/middleware"
	"Courier/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.BodyLimitMiddleware(cfg.Webhook.MaxBodyBytes))
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r, cfg.Logstash.Index)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		webhookGroup := apiGroup.Group("/webhook")
		webhookGroup.Use(middleware.WebhookAuthMiddleware(cfg.Webhook.Token))
		{
			webhookGroup.POST("", group.WebhookHandler.Receive)
		}

		imGroup := apiGroup.Group("/im")
		{
			imGroup.GET("/ws", group.WSHandler.Connect)
			imGroup.GET("/conversations", group.IMHandler.ListConversations)
			imGroup.GET("/conversations/:key/messages", group.IMHandler.ListMessages)
			imGroup.POST("/conversations/:key/read", group.IMHandler.MarkRead)
			imGroup.POST("/send", group.IMHandler.SendMessage)
			imGroup.DELETE("/messages/:id", group.IMHandler.DeleteMessage)
			imGroup.POST("/messages/:id/star", group.IMHandler.ToggleStar)
			imGroup.GET("/search", group.IMHandler.Search)
		}

		contactGroup := apiGroup.Group("/contacts")
		{
			contactGroup.GET("", group.ContactHandler.ListContacts)
			contactGroup.GET("/:wa_id", group.ContactHandler.GetContact)
		}
	}

	return r
}
