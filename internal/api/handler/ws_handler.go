package handler

import (
	"Courier/internal/pkg/consts"
	"Courier/internal/pkg/redis"
	"context"
	log "log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WsHandler 把 Redis 频道上的会话事件转发给 websocket 客户端
type WsHandler struct{}

func NewWsHandler() *WsHandler {
	return &WsHandler{}
}

// Connect conversation 参数指定单个会话，缺省时订阅会话列表频道
func (s *WsHandler) Connect(c *gin.Context) {
	channel := consts.IMConversationListKey
	if key := strings.TrimSpace(c.Query("conversation")); key != "" {
		channel = redis.ConversationChannel(key)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WarnContext(c.Request.Context(), "websocket upgrade failed", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := redis.Subscribe(ctx, channel)
	defer func() {
		_ = pubsub.Close()
	}()

	log.InfoContext(c.Request.Context(), "websocket connected", "channel", channel)

	stopChan := make(chan struct{})

	// 读循环：只处理 pong 与断开
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(stopChan)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// 写循环：Redis 事件与心跳
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	redisCh := pubsub.Channel()
	for {
		select {
		case msg, ok := <-redisCh:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err = conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.WarnContext(c.Request.Context(), "websocket push failed", "channel", channel, "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err = conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-stopChan:
			log.InfoContext(c.Request.Context(), "websocket disconnected", "channel", channel)
			return
		}
	}
}
