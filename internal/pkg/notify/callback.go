package notify

import (
	"Courier/internal/api/config"
	"Courier/internal/pkg/broadcast"
	"Courier/internal/pkg/logger"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const (
	SignatureHeader = "X-Courier-Signature"
	EventHeader     = "X-Courier-Event"
	TraceHeader     = "X-Trace-ID"
)

// CallbackBroadcaster 将消息事件以 JSON POST 到外部回调地址
type CallbackBroadcaster struct {
	client *resty.Client
	url    string
	secret string
}

func NewCallbackBroadcaster(cfg config.CallbackConfig) *CallbackBroadcaster {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &CallbackBroadcaster{
		client: client,
		url:    cfg.URL,
		secret: cfg.Secret,
	}
}

func (s *CallbackBroadcaster) Name() string { return "callback" }

func (s *CallbackBroadcaster) Publish(ctx context.Context, ev broadcast.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	req := s.client.R().
		SetContext(ctx).
		SetHeader(EventHeader, string(ev.Kind)).
		SetBody(body)
	if s.secret != "" {
		req.SetHeader(SignatureHeader, Sign(s.secret, body))
	}
	if traceID := logger.TraceID(ctx); traceID != "" {
		req.SetHeader(TraceHeader, traceID)
	}

	resp, err := req.Post(s.url)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("callback responded %d", resp.StatusCode())
	}
	return nil
}

// Sign 回调签名：sha256=hex(HMAC-SHA256(secret, body))
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
