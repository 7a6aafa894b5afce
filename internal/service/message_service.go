package service

import (
	"Courier/internal/api/dto"
	"Courier/internal/model"
	"Courier/internal/pkg/broadcast"
	"Courier/internal/pkg/consts"
	"Courier/internal/pkg/es"
	"Courier/internal/pkg/mongo"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// MessageService 单条消息的写操作：本地发送、状态回执、软状态与检索
type MessageService interface {
	SendLocalMessage(ctx context.Context, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	ApplyStatus(ctx context.Context, ids model.Identifiers, status model.Status) (*StatusResult, error)
	AdvanceOutgoing(ctx context.Context, from, to model.Status, olderThan time.Duration, limit int64) (int, error)
	DeleteMessage(ctx context.Context, id string) (*dto.MessageDTO, error)
	ToggleStar(ctx context.Context, id string) (*dto.MessageDTO, error)
	Search(ctx context.Context, query *dto.SearchQuery) ([]*dto.SearchHitDTO, error)
}

type messageServiceImpl struct {
	store    *messageStore
	searcher es.MessageRepo
}

// NewMessageService searcher 为 nil 时检索不可用
func NewMessageService(repo mongo.MessageRepo, emitter broadcast.Emitter, cache SummaryCache, searcher es.MessageRepo) MessageService {
	return &messageServiceImpl{
		store:    newMessageStore(repo, emitter, cache),
		searcher: searcher,
	}
}

// SendLocalMessage 本地用户发出的消息与入站消息走同一条入库、发布路径：先以 pending 写入，再推进到 sent
func (s *messageServiceImpl) SendLocalMessage(ctx context.Context, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	key := strings.TrimSpace(req.ConversationKey)
	content := strings.TrimSpace(req.Content)
	if key == "" || content == "" {
		return nil, ErrParamInvalid
	}

	contentType := model.ContentText
	if req.ContentType != "" {
		ct, ok := model.ParseContentType(req.ContentType)
		if !ok {
			return nil, ErrParamInvalid
		}
		contentType = ct
	}

	now := s.store.now()
	msg := &model.Message{
		ConversationKey: key,
		DisplayName:     s.displayNameFor(ctx, key, req.DisplayName),
		PrimaryID:       consts.LocalMessageIDPrefix + uuid.NewString(),
		Direction:       model.DirectionOutgoing,
		Counterpart:     key,
		Content:         truncate(content, model.MaxContentLength),
		ContentType:     contentType,
		Timestamp:       now,
		Status:          model.StatusPending,
		ReplyToID:       req.ReplyToID,
		CreatedAt:       now,
	}
	if contentType.IsMedia() {
		msg.MediaURL = req.MediaURL
		msg.MediaMimeType = req.MediaMimeType
	}
	if req.ReplyToID != "" {
		if quoted, err := s.store.repo.FindByIdentifiers(ctx, model.Identifiers{Primary: req.ReplyToID, Record: req.ReplyToID}); err == nil && quoted != nil {
			msg.ReplyPreview = truncate(quoted.Content, model.MaxReplyPreviewLength)
		}
	}

	if _, err := s.store.insert(ctx, msg); err != nil {
		return nil, err
	}
	if _, err := s.store.advance(ctx, msg, model.StatusSent, msg.PrimaryID); err != nil {
		log.ErrorContext(ctx, "advance local message to sent failed", "id", msg.ID.Hex(), "err", err)
	}
	s.store.invalidate(ctx)

	log.InfoContext(ctx, "local message sent", "conversation", key, "id", msg.ID.Hex())
	return toMessageDTO(msg), nil
}

// displayNameFor 沿用会话中已有的名称
func (s *messageServiceImpl) displayNameFor(ctx context.Context, key, requested string) string {
	if requested != "" {
		return requested
	}
	latest, err := s.store.repo.FindMany(ctx,
		mongo.MessageFilter{ConversationKey: key, Direction: model.DirectionIncoming},
		mongo.FindOptions{Newest: true, Limit: 1},
	)
	if err == nil && len(latest) > 0 && latest[0].DisplayName != "" {
		return latest[0].DisplayName
	}
	return model.DefaultDisplayName(key)
}

func (s *messageServiceImpl) ApplyStatus(ctx context.Context, ids model.Identifiers, status model.Status) (*StatusResult, error) {
	var echo string
	if vals := ids.Values(); len(vals) > 0 {
		echo = vals[0]
	}
	res, err := s.store.applyStatus(ctx, ids, status, echo)
	if res != nil && res.Modified > 0 {
		s.store.invalidate(ctx)
	}
	return res, err
}

// AdvanceOutgoing 把本地发出、进入 from 状态已超过 olderThan 的消息推进到 to。
// 网关上报的外发消息由真实回执驱动，不在此列
func (s *messageServiceImpl) AdvanceOutgoing(ctx context.Context, from, to model.Status, olderThan time.Duration, limit int64) (int, error) {
	before := s.store.now().Add(-olderThan)
	filter := mongo.MessageFilter{
		Direction: model.DirectionOutgoing,
		Statuses:  []model.Status{from},
		IDPrefix:  consts.LocalMessageIDPrefix,
	}
	if from == model.StatusDelivered {
		filter.DeliveredBefore = &before
	} else {
		// 本地消息发出即为 sent，发送时间就是进入 sent 的时间
		filter.Before = &before
	}
	candidates, err := s.store.repo.FindMany(ctx, filter, mongo.FindOptions{Limit: limit})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	advanced := 0
	for _, m := range candidates {
		ok, err := s.store.advance(ctx, m, to, "")
		if err != nil {
			return advanced, err
		}
		if ok {
			advanced++
		}
	}
	if advanced > 0 {
		s.store.invalidate(ctx)
	}
	return advanced, nil
}

func (s *messageServiceImpl) DeleteMessage(ctx context.Context, id string) (*dto.MessageDTO, error) {
	m, err := s.setFlag(ctx, id, mongo.FlagDeleted, func(*model.Message) bool { return true })
	if err != nil {
		return nil, err
	}
	s.store.invalidate(ctx)
	return toMessageDTO(m), nil
}

func (s *messageServiceImpl) ToggleStar(ctx context.Context, id string) (*dto.MessageDTO, error) {
	m, err := s.setFlag(ctx, id, mongo.FlagStarred, func(cur *model.Message) bool { return !cur.IsStarred })
	if err != nil {
		return nil, err
	}
	return toMessageDTO(m), nil
}

func (s *messageServiceImpl) setFlag(ctx context.Context, id string, flag mongo.Flag, value func(*model.Message) bool) (*model.Message, error) {
	cur, err := s.store.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	m, err := s.store.repo.SetFlag(ctx, id, flag, value(cur))
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	s.store.emitter.Emit(broadcast.MessageUpdated(snapshot(m)))
	return m, nil
}

func (s *messageServiceImpl) Search(ctx context.Context, query *dto.SearchQuery) ([]*dto.SearchHitDTO, error) {
	if s.searcher == nil {
		return nil, ErrSearchDisabled
	}
	q := strings.TrimSpace(query.Q)
	if q == "" {
		return nil, ErrParamInvalid
	}
	page, size := query.Page, query.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	docs, err := s.searcher.Search(ctx, q, query.Conversation, (page-1)*size, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	hits := make([]*dto.SearchHitDTO, 0, len(docs))
	if err = copier.Copy(&hits, &docs); err != nil {
		return nil, err
	}
	return hits, nil
}
