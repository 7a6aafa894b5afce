package logger

import (
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

const (
	mongoSlowThreshold = 200 * time.Millisecond
	mongoCmdLimit      = 1000
)

// 握手与心跳命令不记录
var mongoQuietCommands = map[string]struct{}{
	"hello":        {},
	"isMaster":     {},
	"ismaster":     {},
	"ping":         {},
	"saslStart":    {},
	"saslContinue": {},
	"endSessions":  {},
}

func quietMongoCommand(name string) bool {
	_, ok := mongoQuietCommands[name]
	return ok
}

// NewMongoMonitor 命令开始记 Debug，完成按耗时记 Info 或 Warn
func NewMongoMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(ctx context.Context, evt *event.CommandStartedEvent) {
			if quietMongoCommand(evt.CommandName) {
				return
			}
			log.DebugContext(ctx, "MongoDB Started",
				log.String("command", evt.CommandName),
				log.String("database", evt.DatabaseName),
				log.Int64("request_id", evt.RequestID),
				log.String("cmd_detail", truncateString(evt.Command.String(), mongoCmdLimit)),
			)
		},
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			if quietMongoCommand(evt.CommandName) {
				return
			}
			fields := []any{
				log.String("command", evt.CommandName),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
			}
			if evt.Duration > mongoSlowThreshold {
				log.WarnContext(ctx, "MongoDB Slow", fields...)
				return
			}
			log.InfoContext(ctx, "MongoDB Success", fields...)
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			log.ErrorContext(ctx, "MongoDB Error",
				log.String("command", evt.CommandName),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
				log.Any("err", evt.Failure),
			)
		},
	}
}

// truncateString 按字节截断，用于日志中的命令与报文
func truncateString(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...[truncated]"
}
