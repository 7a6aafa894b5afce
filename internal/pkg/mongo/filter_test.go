package mongo

import (
	"Courier/internal/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestMessageFilterToBSON(t *testing.T) {
	before := time.Unix(1700000000, 0)
	f := MessageFilter{
		ConversationKey: "55511",
		Match:           &model.Identifiers{Primary: "abc"},
		Direction:       model.DirectionIncoming,
		Statuses:        []model.Status{model.StatusSent},
		Before:          &before,
	}
	q := f.ToBSON()

	if q["conversation_key"] != "55511" {
		t.Errorf("conversation_key = %v", q["conversation_key"])
	}
	or, ok := q["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("$or = %#v", q["$or"])
	}
	if q["is_deleted"] == nil {
		t.Error("deleted messages should be excluded by default")
	}
	if _, ok := q["timestamp"]; !ok {
		t.Error("missing timestamp bound")
	}
}

func TestMessageFilterEmptyMatch(t *testing.T) {
	q := MessageFilter{Match: &model.Identifiers{}}.ToBSON()
	if _, ok := q["$or"]; ok {
		t.Fatal("empty identifiers must not produce an $or clause")
	}
	if q["_id"] == nil {
		t.Fatal("empty identifiers should match nothing")
	}
	if (MessageFilter{Match: &model.Identifiers{}}).Matches(&model.Message{PrimaryID: "x"}) {
		t.Fatal("empty identifiers matched a message")
	}
}

func TestMessageFilterMatches(t *testing.T) {
	now := time.Now()
	m := &model.Message{
		ConversationKey: "k",
		SecondaryID:     "abc",
		Direction:       model.DirectionIncoming,
		Status:          model.StatusDelivered,
		Timestamp:       now,
	}
	later := now.Add(time.Minute)

	cases := []struct {
		name string
		f    MessageFilter
		want bool
	}{
		{"empty", MessageFilter{}, true},
		{"key", MessageFilter{ConversationKey: "other"}, false},
		{"cross namespace", MessageFilter{Match: &model.Identifiers{Primary: "abc"}}, true},
		{"status in", MessageFilter{Statuses: model.Predecessors(model.StatusRead)}, true},
		{"status not in", MessageFilter{Statuses: []model.Status{model.StatusSent}}, false},
		{"direction", MessageFilter{Direction: model.DirectionOutgoing}, false},
		{"before", MessageFilter{Before: &later}, true},
		{"not before", MessageFilter{Before: &now}, false},
	}
	for _, c := range cases {
		if got := c.f.Matches(m); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}

	m.IsDeleted = true
	if (MessageFilter{}).Matches(m) {
		t.Error("deleted message matched default filter")
	}
	if !(MessageFilter{IncludeDeleted: true}).Matches(m) {
		t.Error("IncludeDeleted should match deleted message")
	}
}

func TestMessageFilterLocalPrefixAndDeliveredBound(t *testing.T) {
	bound := time.Unix(1700000000, 0)
	f := MessageFilter{IDPrefix: "local-", DeliveredBefore: &bound}
	q := f.ToBSON()
	if q["primary_id"] == nil || q["delivered_at"] == nil {
		t.Fatalf("missing clauses: %#v", q)
	}

	early := bound.Add(-time.Minute)
	late := bound.Add(time.Minute)
	cases := []struct {
		name string
		msg  *model.Message
		want bool
	}{
		{"local delivered early", &model.Message{PrimaryID: "local-1", DeliveredAt: &early}, true},
		{"local delivered late", &model.Message{PrimaryID: "local-2", DeliveredAt: &late}, false},
		{"local never delivered", &model.Message{PrimaryID: "local-3"}, false},
		{"gateway message", &model.Message{PrimaryID: "wamid.1", DeliveredAt: &early}, false},
	}
	for _, c := range cases {
		if got := f.Matches(c.msg); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestFindOptionsProjection(t *testing.T) {
	withRaw := FindOptions{Newest: true, Limit: 10}.toMongo()
	if withRaw.Projection != nil {
		t.Errorf("unexpected projection %v", withRaw.Projection)
	}
	if withRaw.Limit == nil || *withRaw.Limit != 10 {
		t.Errorf("limit = %v", withRaw.Limit)
	}

	summary := FindOptions{SkipRaw: true}.toMongo()
	proj, ok := summary.Projection.(bson.M)
	if !ok || proj["raw_original"] != 0 {
		t.Errorf("projection = %#v, want raw_original excluded", summary.Projection)
	}
}
