package es

import (
	"Courier/internal/pkg/broadcast"
	"context"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/conflicts"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/goccy/go-json"
)

const maxSearchSize = 100

type MessageRepo interface {
	IndexMessage(ctx context.Context, msg *MessageES) error
	UpdateStatus(ctx context.Context, messageID string, status string) error
	Search(ctx context.Context, query string, conversationKey string, from, size int) ([]*MessageES, error)
}

type MessageRepoImpl struct {
	client *elasticsearch.TypedClient
}

func NewMessageRepo(client *elasticsearch.TypedClient) *MessageRepoImpl {
	return &MessageRepoImpl{client: client}
}

func (s *MessageRepoImpl) IndexMessage(ctx context.Context, msg *MessageES) error {
	_, err := s.client.Index(MessageIndex).
		Id(msg.MessageID).
		Document(msg).
		Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) && e.Status == ConflictCode {
			return nil
		}
		return err
	}
	return nil
}

func (s *MessageRepoImpl) UpdateStatus(ctx context.Context, messageID string, status string) error {
	statusJSON, _ := json.Marshal(status)
	scriptSource := "ctx._source.status = params.status;"

	resp, err := s.client.UpdateByQuery(MessageIndex).
		Query(&types.Query{
			Term: map[string]types.TermQuery{
				"message_id": {Value: messageID},
			},
		}).
		Script(&types.Script{
			Source: &scriptSource,
			Params: map[string]json.RawMessage{"status": statusJSON},
		}).
		Conflicts(conflicts.Proceed).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("message index: update status failed: %w", err)
	}
	if len(resp.Failures) != 0 {
		return fmt.Errorf("message index: update status has failures, count: %d", len(resp.Failures))
	}
	return nil
}

// Search 全文检索消息内容与联系人名称，可限定会话
func (s *MessageRepoImpl) Search(ctx context.Context, query string, conversationKey string, from, size int) ([]*MessageES, error) {
	if size <= 0 || size > maxSearchSize {
		size = maxSearchSize
	}

	filters := []types.Query{
		{Term: map[string]types.TermQuery{"is_deleted": {Value: false}}},
	}
	if conversationKey != "" {
		filters = append(filters, types.Query{
			Term: map[string]types.TermQuery{"conversation_key": {Value: conversationKey}},
		})
	}

	resp, err := s.client.Search().
		Index(MessageIndex).
		Query(&types.Query{
			Bool: &types.BoolQuery{
				Must: []types.Query{{
					MultiMatch: &types.MultiMatchQuery{
						Query:  query,
						Fields: []string{"content", "display_name"},
					},
				}},
				Filter: filters,
			},
		}).
		Sort(types.SortOptions{SortOptions: map[string]types.FieldSort{
			"timestamp": {Order: &sortorder.Desc},
		}}).
		From(from).
		Size(size).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*MessageES, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		if hit.Source_ == nil {
			continue
		}
		var msg MessageES
		if err = json.Unmarshal(hit.Source_, &msg); err != nil {
			continue
		}
		results = append(results, &msg)
	}
	return results, nil
}

// Indexer 把消息事件同步到检索索引
type Indexer struct {
	repo MessageRepo
}

func NewIndexer(repo MessageRepo) *Indexer {
	return &Indexer{repo: repo}
}

func (s *Indexer) Name() string { return "elasticsearch" }

func (s *Indexer) Publish(ctx context.Context, ev broadcast.Event) error {
	switch ev.Kind {
	case broadcast.KindMessageCreated, broadcast.KindMessageUpdated:
		if ev.Message == nil {
			return nil
		}
		return s.repo.IndexMessage(ctx, NewMessageES(ev.Message))
	case broadcast.KindStatusChanged:
		return s.repo.UpdateStatus(ctx, ev.MessageID, string(ev.Status))
	}
	return nil
}
