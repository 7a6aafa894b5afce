package service

import (
	"Courier/internal/api/dto"
	"Courier/internal/model"
	"Courier/internal/pkg/broadcast"
	"Courier/internal/pkg/payload"
	"context"
	"errors"
	"testing"
	"time"
)

type ingestFixture struct {
	repo     *memRepo
	emitter  *recordingEmitter
	cache    *memCache
	contacts *memContacts
	svc      *ingestServiceImpl
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		repo:     newMemRepo(),
		emitter:  &recordingEmitter{},
		cache:    &memCache{},
		contacts: &memContacts{},
	}
	f.svc = NewIngestService(f.repo, f.emitter, f.cache, f.contacts).(*ingestServiceImpl)
	f.svc.store.now = fixedClock
	return f
}

func (f *ingestFixture) ingest(t *testing.T, body string) (*dto.BatchResult, error) {
	t.Helper()
	raw, err := payload.Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return f.svc.Ingest(context.Background(), raw)
}

func (f *ingestFixture) mustIngest(t *testing.T, body string) *dto.BatchResult {
	t.Helper()
	res, err := f.ingest(t, body)
	if err != nil {
		t.Fatalf("ingest %s: %v", body, err)
	}
	return res
}

func TestIngestEndToEndMessage(t *testing.T) {
	f := newIngestFixture(t)
	res := f.mustIngest(t, `{"messages":[{"from":"55511","text":{"body":"hi"},"timestamp":1700000000}]}`)

	if res.Inserted != 1 || res.Errors != 0 {
		t.Fatalf("got %+v, want one insert", *res)
	}
	all := f.repo.all()
	if len(all) != 1 {
		t.Fatalf("got %d stored messages, want 1", len(all))
	}
	m := all[0]
	if m.ConversationKey != "55511" || m.Content != "hi" || m.ContentType != model.ContentText {
		t.Errorf("unexpected message %+v", m)
	}
	if m.Direction != model.DirectionIncoming || m.Status != model.StatusSent {
		t.Errorf("got direction %s status %s", m.Direction, m.Status)
	}
	if !m.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("got timestamp %v", m.Timestamp)
	}
	if got := f.emitter.count(broadcast.KindMessageCreated); got != 1 {
		t.Errorf("got %d created events, want 1", got)
	}
	if f.cache.invalidated != 1 {
		t.Errorf("cache invalidated %d times, want 1", f.cache.invalidated)
	}
}

func TestIngestStatusProgression(t *testing.T) {
	f := newIngestFixture(t)
	f.mustIngest(t, `{"messages":[{"id":"wamid.A","from":"55511","text":{"body":"hi"},"timestamp":1700000000}]}`)

	res := f.mustIngest(t, `{"type":"status","id":"wamid.A","status":"delivered"}`)
	if res.Updated != 1 || res.Matched != 1 {
		t.Fatalf("got %+v, want one update", *res)
	}
	m := f.repo.byPrimary(t, "wamid.A")
	if m.Status != model.StatusDelivered || m.DeliveredAt == nil {
		t.Fatalf("got status %s deliveredAt %v", m.Status, m.DeliveredAt)
	}
	first := *m.DeliveredAt

	f.svc.store.now = func() time.Time { return fixedNow.Add(time.Hour) }
	res = f.mustIngest(t, `{"type":"status","id":"wamid.A","status":"delivered"}`)
	if res.Updated != 0 || res.Matched != 1 {
		t.Fatalf("repeat: got %+v, want matched without update", *res)
	}
	m = f.repo.byPrimary(t, "wamid.A")
	if !m.DeliveredAt.Equal(first) {
		t.Errorf("deliveredAt moved from %v to %v", first, *m.DeliveredAt)
	}
	if got := f.emitter.count(broadcast.KindStatusChanged); got != 1 {
		t.Errorf("got %d status events, want 1", got)
	}
}

func TestIngestReadIsIdempotentAndNeverRegresses(t *testing.T) {
	f := newIngestFixture(t)
	f.mustIngest(t, `{"id":"m1","from":"1","text":"x"}`)

	f.mustIngest(t, `{"statuses":[{"id":"m1","status":"read"}]}`)
	readAt := *f.repo.byPrimary(t, "m1").ReadAt

	f.svc.store.now = func() time.Time { return fixedNow.Add(time.Minute) }
	f.mustIngest(t, `{"statuses":[{"id":"m1","status":"read"}]}`)
	res := f.mustIngest(t, `{"statuses":[{"id":"m1","status":"sent"}]}`)
	if res.Updated != 0 {
		t.Fatalf("backward update applied: %+v", *res)
	}

	m := f.repo.byPrimary(t, "m1")
	if m.Status != model.StatusRead {
		t.Fatalf("got status %s, want read", m.Status)
	}
	if !m.ReadAt.Equal(readAt) {
		t.Errorf("readAt changed from %v to %v", readAt, *m.ReadAt)
	}
}

func TestIngestCrossNamespaceDuplicate(t *testing.T) {
	f := newIngestFixture(t)
	f.mustIngest(t, `{"id":"abc","from":"1","text":"first"}`)

	res := f.mustIngest(t, `{"meta_id":"abc","from":"1","text":"again"}`)
	if res.Duplicates != 1 || res.Inserted != 0 {
		t.Fatalf("got %+v, want a duplicate", *res)
	}
	if n := len(f.repo.all()); n != 1 {
		t.Fatalf("got %d stored messages, want 1", n)
	}
}

func TestIngestTransportIDDeduplicates(t *testing.T) {
	f := newIngestFixture(t)
	f.mustIngest(t, `{"message":{"conversation":"hey"},"key":{"id":"K1","remoteJid":"777@s.whatsapp.net"}}`)
	res := f.mustIngest(t, `{"wamid":"K1","from":"777","text":"hey"}`)
	if res.Duplicates != 1 {
		t.Fatalf("got %+v, want transport id to dedup", *res)
	}
}

func TestIngestMessageWithoutIdentifiersAlwaysInserts(t *testing.T) {
	f := newIngestFixture(t)
	f.mustIngest(t, `{"from":"1","text":"same"}`)
	f.mustIngest(t, `{"from":"1","text":"same"}`)
	if n := len(f.repo.all()); n != 2 {
		t.Fatalf("got %d stored messages, want 2", n)
	}
}

func TestIngestBatchPartialFailure(t *testing.T) {
	f := newIngestFixture(t)
	res := f.mustIngest(t, `{"messages":[
		{"from":"1","id":"a","text":"x"},
		{"id":"b","text":"y"},
		{"from":"3","id":"c","text":"z"}
	]}`)

	if res.Inserted != 2 || res.Errors != 1 {
		t.Fatalf("got %+v, want inserted=2 errors=1", *res)
	}
	if len(res.Issues) != 1 || res.Issues[0].Index != 1 {
		t.Fatalf("unexpected issues %+v", res.Issues)
	}
	f.repo.byPrimary(t, "a")
	f.repo.byPrimary(t, "c")
}

func TestIngestUnrecognized(t *testing.T) {
	f := newIngestFixture(t)
	for _, body := range []string{`{"foo":1}`, `42`, `[{"foo":1},"x"]`} {
		res, err := f.ingest(t, body)
		if !errors.Is(err, payload.ErrUnrecognizedPayload) {
			t.Errorf("%s: got %v, want ErrUnrecognizedPayload", body, err)
			continue
		}
		if res.Errors == 0 {
			t.Errorf("%s: unrecognized payload not counted", body)
		}
	}
}

func TestIngestMixedArrayKeepsRecognizedEntries(t *testing.T) {
	f := newIngestFixture(t)
	res := f.mustIngest(t, `[{"foo":1},[{"from":"9","text":"nested"}]]`)
	if res.Inserted != 1 || res.Errors != 1 {
		t.Fatalf("got %+v, want inserted=1 errors=1", *res)
	}
}

func TestIngestStatusMatchingNothing(t *testing.T) {
	f := newIngestFixture(t)
	res := f.mustIngest(t, `{"type":"status","id":"missing","status":"read"}`)
	if res.Unmatched != 1 || !res.NothingMatched() {
		t.Fatalf("got %+v, want an unmatched status", *res)
	}
}

func TestIngestStatusWithoutIdentifier(t *testing.T) {
	f := newIngestFixture(t)
	f.mustIngest(t, `{"id":"m1","from":"1","text":"x"}`)
	res := f.mustIngest(t, `{"statuses":[{"status":"read"},{"id":"m1","status":"delivered"}]}`)
	if res.Errors != 1 || res.Updated != 1 {
		t.Fatalf("got %+v, want one error and one update", *res)
	}
}

func TestIngestFailedOnlyFromEarlyStates(t *testing.T) {
	f := newIngestFixture(t)
	f.mustIngest(t, `{"messages":[{"id":"early","from":"1","text":"x"},{"id":"late","from":"1","text":"y","status":"delivered"}]}`)
	f.mustIngest(t, `{"statuses":[{"id":"early","status":"failed"},{"id":"late","status":"failed"}]}`)

	if s := f.repo.byPrimary(t, "early").Status; s != model.StatusFailed {
		t.Errorf("early: got %s, want failed", s)
	}
	if s := f.repo.byPrimary(t, "late").Status; s != model.StatusDelivered {
		t.Errorf("late: got %s, want delivered", s)
	}
}

func TestIngestStatusByRecordHandle(t *testing.T) {
	f := newIngestFixture(t)
	f.mustIngest(t, `{"from":"1","text":"no external id"}`)
	m := f.repo.all()[0]

	res := f.mustIngest(t, `{"type":"status","id":"`+m.ID.Hex()+`","status":"read"}`)
	if res.Updated != 1 {
		t.Fatalf("got %+v, want the record handle to match", *res)
	}
}

func TestIngestContacts(t *testing.T) {
	f := newIngestFixture(t)
	res := f.mustIngest(t, `{"contacts":[{"wa_id":"1","profile":{"name":"Ana"}},{"name":"nobody"}]}`)
	if res.Contacts != 1 || res.Errors != 1 {
		t.Fatalf("got %+v, want contacts=1 errors=1", *res)
	}
	if len(f.contacts.got) != 1 || f.contacts.got[0].Name != "Ana" {
		t.Fatalf("unexpected contacts %+v", f.contacts.got)
	}
}

func TestIngestStorageFailure(t *testing.T) {
	f := newIngestFixture(t)
	f.repo.failAll = errBoom
	res, err := f.ingest(t, `{"id":"x","from":"1","text":"x"}`)
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("got %v, want ErrStorageFailure", err)
	}
	if res.Errors != 1 {
		t.Fatalf("got %+v, want one error", *res)
	}
}

func TestIngestReplyPreviewFromStoredMessage(t *testing.T) {
	f := newIngestFixture(t)
	f.mustIngest(t, `{"id":"orig","from":"1","text":"the original words"}`)
	f.mustIngest(t, `{"id":"reply","from":"1","text":"answer","context":{"id":"orig"}}`)

	if got := f.repo.byPrimary(t, "reply").ReplyPreview; got != "the original words" {
		t.Fatalf("got preview %q", got)
	}
}

func TestIngestTypedEnvelopeWithNestedMessage(t *testing.T) {
	f := newIngestFixture(t)
	res := f.mustIngest(t, `{"type":"message","message":{"from":"555","id":"w1","text":{"body":"hi"}}}`)

	if res.Inserted != 1 || res.Errors != 0 {
		t.Fatalf("got %+v, want one insert", *res)
	}
	m := f.repo.byPrimary(t, "w1")
	if m.ConversationKey != "555" || m.Content != "hi" {
		t.Errorf("got key=%q content=%q", m.ConversationKey, m.Content)
	}
}

func TestIngestSenderProfileKeepsTextType(t *testing.T) {
	f := newIngestFixture(t)
	f.mustIngest(t, `{"type":"message","from":"555","id":"w2","text":{"body":"hi"},"contacts":[{"wa_id":"555","profile":{"name":"Bob"}}]}`)

	m := f.repo.byPrimary(t, "w2")
	if m.ContentType != model.ContentText || m.Content != "hi" || m.DisplayName != "Bob" {
		t.Errorf("got type=%s content=%q name=%q", m.ContentType, m.Content, m.DisplayName)
	}
}

func TestIngestCountsNonObjectCollectionItems(t *testing.T) {
	f := newIngestFixture(t)
	res := f.mustIngest(t, `{"messages":[{"from":"1","text":"a"},"garbage",{"from":"2","text":"b"}]}`)

	if res.Inserted != 2 || res.Errors != 1 {
		t.Fatalf("got %+v, want inserted=2 errors=1", *res)
	}
	if len(res.Issues) != 1 || res.Issues[0].Index != 1 {
		t.Fatalf("unexpected issues %+v", res.Issues)
	}
}
