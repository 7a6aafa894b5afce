package service

import (
	"Courier/internal/api/dto"
	"Courier/internal/model"
	"Courier/internal/pkg/broadcast"
	"Courier/internal/pkg/mongo"
	"Courier/internal/pkg/payload"
	"context"
	"errors"
	log "log/slog"
	"unicode/utf8"
)

// ContactStore contacts 负载的落库出口
type ContactStore interface {
	Upsert(ctx context.Context, contacts []*model.Contact) error
}

// IngestService webhook 负载入库：分类、规范化、去重、写入、发布事件
type IngestService interface {
	Ingest(ctx context.Context, raw any) (*dto.BatchResult, error)
}

type ingestServiceImpl struct {
	store    *messageStore
	contacts ContactStore
}

func NewIngestService(repo mongo.MessageRepo, emitter broadcast.Emitter, cache SummaryCache, contacts ContactStore) IngestService {
	return &ingestServiceImpl{
		store:    newMessageStore(repo, emitter, cache),
		contacts: contacts,
	}
}

// Ingest 批内各条记录互不影响；全部无法分类时返回 ErrUnrecognizedPayload，
// 出现存储错误时返回包装了 ErrStorageFailure 的错误，结果中仍带有已完成的计数
func (s *ingestServiceImpl) Ingest(ctx context.Context, raw any) (*dto.BatchResult, error) {
	result := &dto.BatchResult{}
	batches := payload.Classify(raw)

	var storageErr error
	recognized := false
	index := 0

	for _, b := range batches {
		if b.Err != nil {
			result.AddIssue(index, b.Kind.String(), b.Err)
			index++
			continue
		}
		recognized = true

		switch b.Kind {
		case payload.KindStatus:
			for _, e := range b.Entries {
				err := s.ingestStatus(ctx, e, result)
				if err != nil {
					result.AddIssue(index, b.Kind.String(), err)
					if errors.Is(err, ErrStorageFailure) && storageErr == nil {
						storageErr = err
					}
				}
				index++
			}
		case payload.KindContact:
			s.ingestContacts(ctx, b.Entries, index, result)
			index += len(b.Entries)
		default:
			// 显式消息与隐式消息走同一条路径
			for _, e := range b.Entries {
				err := s.ingestMessage(ctx, e, result)
				if err != nil {
					result.AddIssue(index, payload.KindMessage.String(), err)
					if errors.Is(err, ErrStorageFailure) && storageErr == nil {
						storageErr = err
					}
				}
				index++
			}
		}
	}

	if result.Inserted > 0 || result.Updated > 0 {
		s.store.invalidate(ctx)
	}

	log.InfoContext(ctx, "webhook ingested",
		"batches", len(batches),
		"inserted", result.Inserted,
		"updated", result.Updated,
		"duplicates", result.Duplicates,
		"unmatched", result.Unmatched,
		"contacts", result.Contacts,
		"errors", result.Errors,
	)

	if !recognized {
		return result, payload.ErrUnrecognizedPayload
	}
	if storageErr != nil {
		return result, storageErr
	}
	return result, nil
}

func (s *ingestServiceImpl) ingestMessage(ctx context.Context, e payload.Entry, result *dto.BatchResult) error {
	if e.Err != nil {
		return e.Err
	}
	draft, err := payload.Normalize(e.Object, e.Parent, s.store.now())
	if err != nil {
		return err
	}
	if draft.ReplyPreview == "" && draft.ReplyToID != "" {
		draft.ReplyPreview = s.quotePreview(ctx, draft.ReplyToID)
	}

	outcome, err := s.store.insert(ctx, draft)
	if err != nil {
		return err
	}
	switch outcome {
	case outcomeInserted:
		result.Inserted++
	case outcomeDuplicate:
		result.Duplicates++
	}
	return nil
}

func (s *ingestServiceImpl) ingestStatus(ctx context.Context, e payload.Entry, result *dto.BatchResult) error {
	if e.Err != nil {
		return e.Err
	}
	upd, err := payload.ExtractStatusUpdate(e.Object, e.Parent, s.store.now())
	if err != nil {
		return err
	}
	result.Statuses++

	res, err := s.store.applyStatus(ctx, upd.IDs, upd.Status, upd.Echo)
	if res != nil {
		result.Matched += res.Matched
		result.Updated += res.Modified
		if res.Matched == 0 {
			result.Unmatched++
			log.DebugContext(ctx, "status update matched no message", "echo", upd.Echo, "status", upd.Status)
		}
	}
	return err
}

func (s *ingestServiceImpl) ingestContacts(ctx context.Context, entries []payload.Entry, start int, result *dto.BatchResult) {
	contacts := make([]*model.Contact, 0, len(entries))
	for i, e := range entries {
		if e.Err != nil {
			result.AddIssue(start+i, payload.KindContact.String(), e.Err)
			continue
		}
		c, err := payload.ExtractContact(e.Object)
		if err != nil {
			result.AddIssue(start+i, payload.KindContact.String(), err)
			continue
		}
		contacts = append(contacts, c)
	}
	result.Contacts += len(contacts)

	if s.contacts == nil || len(contacts) == 0 {
		return
	}
	// 联系人只做资料补充，落库失败不影响消息处理
	if err := s.contacts.Upsert(ctx, contacts); err != nil {
		log.WarnContext(ctx, "upsert contacts failed", "count", len(contacts), "err", err)
	}
}

// quotePreview 负载只给出被引用消息的标识时，从已存储的消息生成预览
func (s *ingestServiceImpl) quotePreview(ctx context.Context, replyTo string) string {
	quoted, err := s.store.repo.FindByIdentifiers(ctx, model.Identifiers{Primary: replyTo})
	if err != nil || quoted == nil {
		return ""
	}
	return truncate(quoted.Content, model.MaxReplyPreviewLength)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
