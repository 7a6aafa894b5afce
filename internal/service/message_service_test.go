package service

import (
	"Courier/internal/api/dto"
	"Courier/internal/model"
	"Courier/internal/pkg/broadcast"
	"Courier/internal/pkg/consts"
	"Courier/internal/pkg/es"
	"Courier/internal/pkg/payload"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubSearcher struct {
	docs      []*es.MessageES
	gotQuery  string
	gotFrom   int
	gotSize   int
	gotFilter string
}

func (s *stubSearcher) IndexMessage(context.Context, *es.MessageES) error  { return nil }
func (s *stubSearcher) UpdateStatus(context.Context, string, string) error { return nil }
func (s *stubSearcher) Search(_ context.Context, query, key string, from, size int) ([]*es.MessageES, error) {
	s.gotQuery, s.gotFilter, s.gotFrom, s.gotSize = query, key, from, size
	return s.docs, nil
}

func newMessageFixture(t *testing.T, searcher es.MessageRepo) (*messageServiceImpl, *memRepo, *memCache, *recordingEmitter) {
	t.Helper()
	repo, cache, emitter := newMemRepo(), &memCache{}, &recordingEmitter{}
	svc := NewMessageService(repo, emitter, cache, searcher).(*messageServiceImpl)
	svc.store.now = fixedClock
	return svc, repo, cache, emitter
}

func TestSendLocalMessage(t *testing.T) {
	svc, repo, cache, emitter := newMessageFixture(t, nil)
	seed(t, repo, &model.Message{PrimaryID: "in", ConversationKey: "55511", DisplayName: "Ana", Content: "original question", Timestamp: at(-5)})

	got, err := svc.SendLocalMessage(context.Background(), &dto.SendMessageReq{
		ConversationKey: "55511",
		Content:         "  on my way  ",
		ReplyToID:       "in",
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(got.PrimaryID, consts.LocalMessageIDPrefix) {
		t.Errorf("primary id %q lacks local prefix", got.PrimaryID)
	}
	if got.Status != string(model.StatusSent) || got.Direction != string(model.DirectionOutgoing) {
		t.Errorf("status %s direction %s", got.Status, got.Direction)
	}
	if got.Content != "on my way" || got.ContentType != string(model.ContentText) {
		t.Errorf("content %q type %s", got.Content, got.ContentType)
	}
	if got.DisplayName != "Ana" || got.ReplyPreview != "original question" {
		t.Errorf("display name %q preview %q", got.DisplayName, got.ReplyPreview)
	}
	if got.ID == "" {
		t.Error("record id missing from response")
	}

	stored := repo.byPrimary(t, got.PrimaryID)
	if stored.Status != model.StatusSent || stored.Counterpart != "55511" {
		t.Errorf("stored %+v", stored)
	}

	kinds := emitter.kinds()
	if len(kinds) != 2 || kinds[0] != broadcast.KindMessageCreated || kinds[1] != broadcast.KindStatusChanged {
		t.Errorf("events %v", kinds)
	}
	if cache.invalidated == 0 {
		t.Error("summary cache not invalidated")
	}
}

func TestSendLocalMessageValidation(t *testing.T) {
	svc, repo, _, _ := newMessageFixture(t, nil)
	cases := []*dto.SendMessageReq{
		{ConversationKey: "", Content: "x"},
		{ConversationKey: "k", Content: "   "},
		{ConversationKey: "k", Content: "x", ContentType: "hologram"},
	}
	for _, req := range cases {
		if _, err := svc.SendLocalMessage(context.Background(), req); !errors.Is(err, ErrParamInvalid) {
			t.Errorf("%+v: got %v, want ErrParamInvalid", req, err)
		}
	}
	if n := len(repo.all()); n != 0 {
		t.Fatalf("%d messages stored for invalid requests", n)
	}
}

func TestSendLocalMessageStorageFailure(t *testing.T) {
	svc, repo, _, emitter := newMessageFixture(t, nil)
	repo.failAll = errBoom
	_, err := svc.SendLocalMessage(context.Background(), &dto.SendMessageReq{ConversationKey: "k", Content: "x", DisplayName: "K"})
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("got %v, want ErrStorageFailure", err)
	}
	if len(emitter.kinds()) != 0 {
		t.Fatalf("events emitted for a failed send: %v", emitter.kinds())
	}
}

func TestApplyStatus(t *testing.T) {
	svc, repo, _, _ := newMessageFixture(t, nil)
	seed(t, repo, &model.Message{PrimaryID: "p", SecondaryID: "s", ConversationKey: "k", Content: "x", Timestamp: at(0), Status: model.StatusDelivered})
	ctx := context.Background()

	res, err := svc.ApplyStatus(ctx, model.Identifiers{Secondary: "s"}, model.StatusFailed)
	if err != nil {
		t.Fatal(err)
	}
	if res.Matched != 1 || res.Modified != 0 {
		t.Fatalf("failed after delivered: %+v", res)
	}

	res, err = svc.ApplyStatus(ctx, model.Identifiers{Primary: "s"}, model.StatusRead)
	if err != nil {
		t.Fatal(err)
	}
	if res.Modified != 1 || repo.byPrimary(t, "p").Status != model.StatusRead {
		t.Fatalf("cross-namespace status not applied: %+v", res)
	}

	if _, err = svc.ApplyStatus(ctx, model.Identifiers{}, model.StatusRead); !errors.Is(err, payload.ErrNoIdentifier) {
		t.Fatalf("empty identifiers: got %v", err)
	}
}

func TestAdvanceOutgoing(t *testing.T) {
	svc, repo, _, _ := newMessageFixture(t, nil)
	seed(t, repo,
		&model.Message{PrimaryID: "local-old", ConversationKey: "k", Direction: model.DirectionOutgoing, Content: "a", Timestamp: fixedNow.Add(-10 * time.Minute)},
		&model.Message{PrimaryID: "local-fresh", ConversationKey: "k", Direction: model.DirectionOutgoing, Content: "b", Timestamp: fixedNow.Add(-10 * time.Second)},
		&model.Message{PrimaryID: "incoming", ConversationKey: "k", Content: "c", Timestamp: fixedNow.Add(-10 * time.Minute)},
	)

	n, err := svc.AdvanceOutgoing(context.Background(), model.StatusSent, model.StatusDelivered, time.Minute, 100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("advanced %d, want 1", n)
	}
	if s := repo.byPrimary(t, "local-old").Status; s != model.StatusDelivered {
		t.Errorf("old: %s", s)
	}
	if s := repo.byPrimary(t, "local-fresh").Status; s != model.StatusSent {
		t.Errorf("fresh: %s", s)
	}
	if s := repo.byPrimary(t, "incoming").Status; s != model.StatusSent {
		t.Errorf("incoming: %s", s)
	}
}

func TestAdvanceOutgoingLeavesGatewayMessages(t *testing.T) {
	svc, repo, _, _ := newMessageFixture(t, nil)
	seed(t, repo, &model.Message{PrimaryID: "g1", ConversationKey: "5", Direction: model.DirectionOutgoing, Content: "x", Timestamp: fixedNow.Add(-time.Hour)})

	for _, stage := range [][2]model.Status{{model.StatusSent, model.StatusDelivered}, {model.StatusDelivered, model.StatusRead}} {
		n, err := svc.AdvanceOutgoing(context.Background(), stage[0], stage[1], 0, 100)
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("%s -> %s advanced %d gateway messages", stage[0], stage[1], n)
		}
	}
	if s := repo.byPrimary(t, "g1").Status; s != model.StatusSent {
		t.Errorf("gateway message status = %s, want sent", s)
	}
}

func TestAdvanceOutgoingReadWaitsFromDelivery(t *testing.T) {
	svc, repo, _, _ := newMessageFixture(t, nil)
	seed(t, repo, &model.Message{PrimaryID: consts.LocalMessageIDPrefix + "1", ConversationKey: "k", Direction: model.DirectionOutgoing, Content: "a", Timestamp: fixedNow.Add(-time.Hour)})
	ctx := context.Background()

	if n, err := svc.AdvanceOutgoing(ctx, model.StatusSent, model.StatusDelivered, time.Minute, 100); err != nil || n != 1 {
		t.Fatalf("deliver: n=%d err=%v", n, err)
	}
	// 发送时间虽早，但刚刚才送达
	if n, err := svc.AdvanceOutgoing(ctx, model.StatusDelivered, model.StatusRead, time.Minute, 100); err != nil || n != 0 {
		t.Fatalf("read too early: n=%d err=%v", n, err)
	}

	svc.store.now = func() time.Time { return fixedNow.Add(2 * time.Minute) }
	if n, err := svc.AdvanceOutgoing(ctx, model.StatusDelivered, model.StatusRead, time.Minute, 100); err != nil || n != 1 {
		t.Fatalf("read: n=%d err=%v", n, err)
	}
	if s := repo.byPrimary(t, consts.LocalMessageIDPrefix+"1").Status; s != model.StatusRead {
		t.Errorf("status = %s", s)
	}
}

func TestToggleStarAndDelete(t *testing.T) {
	svc, repo, cache, emitter := newMessageFixture(t, nil)
	seed(t, repo, &model.Message{PrimaryID: "p", ConversationKey: "k", Content: "x", Timestamp: at(0)})
	id := repo.byPrimary(t, "p").ID.Hex()
	ctx := context.Background()

	starred, err := svc.ToggleStar(ctx, id)
	if err != nil || !starred.IsStarred {
		t.Fatalf("star: %+v, %v", starred, err)
	}
	unstarred, err := svc.ToggleStar(ctx, id)
	if err != nil || unstarred.IsStarred {
		t.Fatalf("unstar: %+v, %v", unstarred, err)
	}

	deleted, err := svc.DeleteMessage(ctx, id)
	if err != nil || !deleted.IsDeleted {
		t.Fatalf("delete: %+v, %v", deleted, err)
	}
	if cache.invalidated != 1 {
		t.Errorf("invalidated %d, want 1", cache.invalidated)
	}
	if got := emitter.count(broadcast.KindMessageUpdated); got != 3 {
		t.Errorf("got %d update events, want 3", got)
	}

	if _, err = svc.ToggleStar(ctx, "not-an-id"); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("got %v, want ErrMessageNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	svc, _, _, _ := newMessageFixture(t, nil)
	if _, err := svc.Search(context.Background(), &dto.SearchQuery{Q: "x"}); !errors.Is(err, ErrSearchDisabled) {
		t.Fatalf("got %v, want ErrSearchDisabled", err)
	}

	stub := &stubSearcher{docs: []*es.MessageES{{MessageID: "m1", ConversationKey: "k", Content: "hello world", Status: "read"}}}
	svc, _, _, _ = newMessageFixture(t, stub)
	hits, err := svc.Search(context.Background(), &dto.SearchQuery{Q: " hello ", Conversation: "k", Page: 2, PageSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].MessageID != "m1" || hits[0].Content != "hello world" {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if stub.gotQuery != "hello" || stub.gotFilter != "k" || stub.gotFrom != 10 || stub.gotSize != 10 {
		t.Fatalf("searcher called with %q %q %d %d", stub.gotQuery, stub.gotFilter, stub.gotFrom, stub.gotSize)
	}
}
