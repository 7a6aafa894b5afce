package redis

import (
	"Courier/internal/model"
	"Courier/internal/pkg/consts"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// SummaryCache 会话摘要列表缓存，按代数分键；失效时代数加一，旧代数的写入不再可见
type SummaryCache struct {
	ttl time.Duration
}

func NewSummaryCache(ttl time.Duration) *SummaryCache {
	return &SummaryCache{ttl: ttl}
}

func listKey(gen int64) string {
	return consts.ConversationSummaryKey + strconv.FormatInt(gen, 10)
}

// generation 读取失败时返回 -1，此时不回填缓存
func (s *SummaryCache) generation(ctx context.Context) int64 {
	val, err := GetValue(ctx, consts.ConversationSummaryGen)
	if err != nil {
		log.WarnContext(ctx, "Failed to read conversation summary generation", "err", err)
		return -1
	}
	if val == "" {
		return 0
	}
	gen, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return -1
	}
	return gen
}

func (s *SummaryCache) Get(ctx context.Context) ([]*model.ConversationSummary, int64, bool) {
	gen := s.generation(ctx)
	if gen < 0 {
		return nil, gen, false
	}
	val, err := GetValue(ctx, listKey(gen))
	if err != nil || val == "" {
		return nil, gen, false
	}
	var list []*model.ConversationSummary
	if err = json.Unmarshal([]byte(val), &list); err != nil {
		log.WarnContext(ctx, "Corrupted conversation summary cache", "err", err)
		return nil, gen, false
	}
	return list, gen, true
}

func (s *SummaryCache) Set(ctx context.Context, gen int64, list []*model.ConversationSummary) {
	if gen < 0 {
		return
	}
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err = SetWithExpiration(ctx, listKey(gen), data, s.ttl); err != nil {
		log.WarnContext(ctx, "Failed to cache conversation summaries", "err", err)
	}
}

func (s *SummaryCache) Invalidate(ctx context.Context) {
	gen, err := Incr(ctx, consts.ConversationSummaryGen)
	if err != nil {
		log.WarnContext(ctx, "Failed to invalidate conversation summaries", "err", err)
		return
	}
	if err = DeleteKey(ctx, listKey(gen-1)); err != nil {
		log.WarnContext(ctx, "Failed to drop stale conversation summaries", "gen", gen-1, "err", err)
	}
}
