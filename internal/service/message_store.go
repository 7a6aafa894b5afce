package service

import (
	"Courier/internal/model"
	"Courier/internal/pkg/broadcast"
	"Courier/internal/pkg/mongo"
	"Courier/internal/pkg/payload"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"
)

// SummaryCache 会话摘要缓存，写路径在消息变化后使其失效。
// Get 同时返回当前代数，Set 只在代数未变时生效，避免把失效前算出的列表写回
type SummaryCache interface {
	Get(ctx context.Context) ([]*model.ConversationSummary, int64, bool)
	Set(ctx context.Context, gen int64, list []*model.ConversationSummary)
	Invalidate(ctx context.Context)
}

type nopCache struct{}

func (nopCache) Get(context.Context) ([]*model.ConversationSummary, int64, bool) { return nil, 0, false }
func (nopCache) Set(context.Context, int64, []*model.ConversationSummary)        {}
func (nopCache) Invalidate(context.Context)                                      {}

type insertOutcome int

const (
	outcomeInserted insertOutcome = iota
	outcomeDuplicate
)

// StatusResult 一次状态回执的处理结果
type StatusResult struct {
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
}

// messageStore 写路径共用的去重、入库、状态推进与事件发布
type messageStore struct {
	repo    mongo.MessageRepo
	emitter broadcast.Emitter
	cache   SummaryCache
	now     func() time.Time
}

func newMessageStore(repo mongo.MessageRepo, emitter broadcast.Emitter, cache SummaryCache) *messageStore {
	if emitter == nil {
		emitter = broadcast.NopEmitter{}
	}
	if cache == nil {
		cache = nopCache{}
	}
	return &messageStore{
		repo:    repo,
		emitter: emitter,
		cache:   cache,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// findExisting 任一标识在任一命名空间命中即视为已存在；没有标识的草稿永远不是重复
func (s *messageStore) findExisting(ctx context.Context, draft *model.Message) (*model.Message, error) {
	ids := draft.Identifiers()
	if ids.IsEmpty() {
		return nil, nil
	}
	return s.repo.FindByIdentifiers(ctx, ids)
}

// insert 去重后入库并发布 MessageCreated；唯一索引冲突按重复处理
func (s *messageStore) insert(ctx context.Context, draft *model.Message) (insertOutcome, error) {
	existing, err := s.findExisting(ctx, draft)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if existing != nil {
		log.DebugContext(ctx, "duplicate message skipped",
			"conversation", draft.ConversationKey,
			"existing", existing.ID.Hex(),
		)
		return outcomeDuplicate, nil
	}

	if err = s.repo.Insert(ctx, draft); err != nil {
		if errors.Is(err, mongo.ErrDuplicateIdentifier) {
			return outcomeDuplicate, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.emitter.Emit(broadcast.MessageCreated(snapshot(draft)))
	return outcomeInserted, nil
}

// applyStatus 对所有命中的消息做单调前进，每条消息的更新是条件更新
func (s *messageStore) applyStatus(ctx context.Context, ids model.Identifiers, next model.Status, echo string) (*StatusResult, error) {
	if ids.IsEmpty() {
		return nil, payload.ErrNoIdentifier
	}
	if !next.Valid() {
		return nil, payload.ErrInvalidStatus
	}

	matched, err := s.repo.FindMany(ctx, mongo.MessageFilter{Match: &ids, IncludeDeleted: true}, mongo.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	res := &StatusResult{Matched: len(matched)}
	for _, m := range matched {
		ok, err := s.advance(ctx, m, next, echo)
		if err != nil {
			return res, err
		}
		if ok {
			res.Modified++
		}
	}
	return res, nil
}

// advance 推进单条消息，返回是否实际修改
func (s *messageStore) advance(ctx context.Context, m *model.Message, next model.Status, echo string) (bool, error) {
	if !m.Status.CanAdvanceTo(next) {
		return false, nil
	}
	now := s.now()
	ok, err := s.repo.AdvanceStatus(ctx, m.ID, next, now)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if !ok {
		// 并发回执已经把状态推到更后
		return false, nil
	}

	m.Status = next
	switch next {
	case model.StatusDelivered:
		if m.DeliveredAt == nil {
			m.DeliveredAt = &now
		}
	case model.StatusRead:
		if m.ReadAt == nil {
			m.ReadAt = &now
		}
	}
	if echo == "" {
		echo = firstIdentifier(m)
	}
	s.emitter.Emit(broadcast.StatusChanged(m, echo, next))
	return true, nil
}

func (s *messageStore) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx)
}

// snapshot 事件异步投递，交给分发器的消息与调用方后续修改隔离
func snapshot(m *model.Message) *model.Message {
	cp := *m
	return &cp
}

func firstIdentifier(m *model.Message) string {
	if vals := m.Identifiers().Values(); len(vals) > 0 {
		return vals[0]
	}
	return m.ID.Hex()
}
