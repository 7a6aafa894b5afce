package service

import (
	"Courier/internal/api/config"
	"Courier/internal/api/dto"
	"Courier/internal/model"
	"Courier/internal/pkg/broadcast"
	"Courier/internal/pkg/mongo"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ConversationService 会话视图：摘要列表、消息分页与已读
type ConversationService interface {
	ListConversations(ctx context.Context) ([]*dto.ConversationDTO, error)
	ListMessages(ctx context.Context, key string, query *dto.ListMessagesQuery) (*dto.MessagePage, error)
	MarkConversationRead(ctx context.Context, key string) (*dto.MarkReadResult, error)
}

type conversationServiceImpl struct {
	store           *messageStore
	defaultPageSize int
	maxPageSize     int
}

func NewConversationService(repo mongo.MessageRepo, emitter broadcast.Emitter, cache SummaryCache, cfg config.ConversationConfig) ConversationService {
	s := &conversationServiceImpl{
		store:           newMessageStore(repo, emitter, cache),
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
	if s.defaultPageSize <= 0 {
		s.defaultPageSize = defaultPageSize
	}
	if s.maxPageSize <= 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// ListConversations 摘要由消息实时推导，缓存只是加速
func (s *conversationServiceImpl) ListConversations(ctx context.Context) ([]*dto.ConversationDTO, error) {
	summaries, gen, ok := s.store.cache.Get(ctx)
	if !ok {
		messages, err := s.store.repo.FindMany(ctx, mongo.MessageFilter{}, mongo.FindOptions{SkipRaw: true})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		summaries = summarize(messages)
		// 查询期间若有写入，代数已变，这次结果不会被读到
		s.store.cache.Set(ctx, gen, summaries)
	}

	res := make([]*dto.ConversationDTO, 0, len(summaries))
	if err := copier.Copy(&res, &summaries); err != nil {
		return nil, err
	}
	return res, nil
}

// ListMessages 返回按时间正序的一页消息；指定 Before 时以锚点时间做不含锚点的分页，忽略 Page
func (s *conversationServiceImpl) ListMessages(ctx context.Context, key string, query *dto.ListMessagesQuery) (*dto.MessagePage, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrParamInvalid
	}
	if query == nil {
		query = &dto.ListMessagesQuery{}
	}

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}

	filter := mongo.MessageFilter{ConversationKey: key}
	opts := mongo.FindOptions{Newest: true, Limit: int64(pageSize) + 1}

	if query.Before != "" {
		anchor, err := s.findAnchor(ctx, query.Before)
		if err != nil {
			return nil, err
		}
		if anchor.ConversationKey != key {
			return nil, ErrAnchorMismatch
		}
		filter.Before = &anchor.Timestamp
		page = 1
	} else {
		opts.Skip = int64((page - 1) * pageSize)
	}

	messages, err := s.store.repo.FindMany(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	hasMore := len(messages) > pageSize
	if hasMore {
		messages = messages[:pageSize]
	}
	// 查询为倒序，展示为正序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	total, err := s.store.repo.CountByConversation(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	return &dto.MessagePage{
		Messages: toMessageDTOs(messages),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasMore:  hasMore,
	}, nil
}

// findAnchor 锚点可以是记录 id，也可以是外部标识
func (s *conversationServiceImpl) findAnchor(ctx context.Context, ref string) (*model.Message, error) {
	m, err := s.store.repo.FindByID(ctx, ref)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, mongo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	m, err = s.store.repo.FindByIdentifiers(ctx, model.Identifiers{Primary: ref})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if m == nil {
		return nil, ErrMessageNotFound
	}
	return m, nil
}

// MarkConversationRead 把会话中未读的入站消息推进到 read，受单调规则约束
func (s *conversationServiceImpl) MarkConversationRead(ctx context.Context, key string) (*dto.MarkReadResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrParamInvalid
	}

	filter := mongo.MessageFilter{
		ConversationKey: key,
		Direction:       model.DirectionIncoming,
		Statuses:        model.Predecessors(model.StatusRead),
	}
	unread, err := s.store.repo.FindMany(ctx, filter, mongo.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	updated := 0
	for _, m := range unread {
		ok, err := s.store.advance(ctx, m, model.StatusRead, "")
		if err != nil {
			log.ErrorContext(ctx, "mark message read failed", "id", m.ID.Hex(), "err", err)
			continue
		}
		if ok {
			updated++
		}
	}
	if updated > 0 {
		s.store.invalidate(ctx)
	}

	return &dto.MarkReadResult{ConversationKey: key, Updated: updated}, nil
}

// dtoCopyOption ObjectID 按 hex 输出
var dtoCopyOption = copier.Option{
	Converters: []copier.TypeConverter{{
		SrcType: primitive.ObjectID{},
		DstType: copier.String,
		Fn: func(src any) (any, error) {
			return src.(primitive.ObjectID).Hex(), nil
		},
	}},
}

func toMessageDTO(m *model.Message) *dto.MessageDTO {
	d := &dto.MessageDTO{}
	if err := copier.CopyWithOption(d, m, dtoCopyOption); err != nil {
		log.Warn("copy message dto failed", "id", m.ID.Hex(), "err", err)
	}
	return d
}

func toMessageDTOs(messages []*model.Message) []*dto.MessageDTO {
	res := make([]*dto.MessageDTO, 0, len(messages))
	for _, m := range messages {
		res = append(res, toMessageDTO(m))
	}
	return res
}
