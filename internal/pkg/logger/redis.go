package logger

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSlowThreshold = 100 * time.Millisecond

// RedisLoggerHook go-redis 钩子，只记录错误与慢命令
type RedisLoggerHook struct{}

func NewRedisLogger() *RedisLoggerHook {
	return &RedisLoggerHook{}
}

func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis Dial Error",
				log.String("addr", addr),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err),
			)
		}
		return conn, err
	}
}

func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start)

		if err != nil && ignorableRedisError(cmd.Name(), err) {
			return err
		}
		if err == nil && elapsed <= redisSlowThreshold {
			return nil
		}

		fields := []any{
			log.String("command", cmd.Name()),
			log.String("args", redisArgs(cmd)),
			log.Duration("latency", elapsed),
		}
		if err != nil {
			log.ErrorContext(ctx, "Redis Error", append(fields, log.Any("err", err))...)
			return err
		}
		log.WarnContext(ctx, "Redis Slow", fields...)
		return nil
	}
}

// ProcessPipelineHook 事件发布走 pipeline
func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)

		switch {
		case err != nil:
			log.ErrorContext(ctx, "Redis Pipeline Error",
				log.Int("cmd_count", len(cmds)),
				log.Duration("latency", elapsed),
				log.Any("err", err))
		case elapsed > redisSlowThreshold:
			log.WarnContext(ctx, "Redis Pipeline Slow",
				log.Int("cmd_count", len(cmds)),
				log.Duration("latency", elapsed))
		}
		return err
	}
}

// redisArgs 隐藏认证参数，发布的事件体只保留频道名
func redisArgs(cmd redis.Cmder) string {
	switch cmd.Name() {
	case "auth", "hello":
		return "[PROTECTED]"
	case "publish":
		if args := cmd.Args(); len(args) > 1 {
			return fmt.Sprint(args[:2])
		}
	}
	return truncateString(fmt.Sprint(cmd.Args()), 512)
}

func ignorableRedisError(name string, err error) bool {
	if errors.Is(err, redis.Nil) {
		return true
	}
	return name == "client" && strings.Contains(err.Error(), "setinfo")
}
