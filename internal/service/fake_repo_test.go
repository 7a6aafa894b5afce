package service

import (
	"Courier/internal/model"
	"Courier/internal/pkg/broadcast"
	"Courier/internal/pkg/mongo"
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memRepo 内存实现，语义与 Mongo 实现保持一致（含 primary_id/secondary_id 唯一约束）
type memRepo struct {
	mu      sync.Mutex
	msgs    []*model.Message
	failAll error
}

func newMemRepo() *memRepo { return &memRepo{} }

func (r *memRepo) Insert(_ context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	for _, m := range r.msgs {
		if (msg.PrimaryID != "" && m.PrimaryID == msg.PrimaryID) ||
			(msg.SecondaryID != "" && m.SecondaryID == msg.SecondaryID) {
			return mongo.ErrDuplicateIdentifier
		}
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	cp := *msg
	r.msgs = append(r.msgs, &cp)
	return nil
}

func (r *memRepo) FindByIdentifiers(_ context.Context, ids model.Identifiers) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	if ids.IsEmpty() {
		return nil, nil
	}
	f := mongo.MessageFilter{Match: &ids, IncludeDeleted: true}
	for _, m := range r.msgs {
		if f.Matches(m) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNotFound
	}
	for _, m := range r.msgs {
		if m.ID == oid {
			cp := *m
			return &cp, nil
		}
	}
	return nil, mongo.ErrNotFound
}

func (r *memRepo) FindMany(_ context.Context, filter mongo.MessageFilter, opts mongo.FindOptions) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	var res []*model.Message
	for _, m := range r.msgs {
		if filter.Matches(m) {
			cp := *m
			res = append(res, &cp)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if opts.Newest {
			return res[i].Timestamp.After(res[j].Timestamp)
		}
		return res[i].Timestamp.Before(res[j].Timestamp)
	})
	if opts.Skip > 0 {
		if int(opts.Skip) >= len(res) {
			return []*model.Message{}, nil
		}
		res = res[opts.Skip:]
	}
	if opts.Limit > 0 && int(opts.Limit) < len(res) {
		res = res[:opts.Limit]
	}
	return res, nil
}

func (r *memRepo) AdvanceStatus(_ context.Context, id primitive.ObjectID, next model.Status, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ID != id {
			continue
		}
		if !m.Status.CanAdvanceTo(next) {
			return false, nil
		}
		m.Status = next
		switch next {
		case model.StatusDelivered:
			if m.DeliveredAt == nil {
				t := now
				m.DeliveredAt = &t
			}
		case model.StatusRead:
			if m.ReadAt == nil {
				t := now
				m.ReadAt = &t
			}
		}
		return true, nil
	}
	return false, nil
}

func (r *memRepo) CountByConversation(_ context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	f := mongo.MessageFilter{ConversationKey: key}
	for _, m := range r.msgs {
		if f.Matches(m) {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) SetFlag(_ context.Context, id string, flag mongo.Flag, value bool) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNotFound
	}
	for _, m := range r.msgs {
		if m.ID != oid {
			continue
		}
		switch flag {
		case mongo.FlagDeleted:
			m.IsDeleted = value
		case mongo.FlagStarred:
			m.IsStarred = value
		}
		cp := *m
		return &cp, nil
	}
	return nil, mongo.ErrNotFound
}

func (r *memRepo) all() []*model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*model.Message, 0, len(r.msgs))
	for _, m := range r.msgs {
		cp := *m
		res = append(res, &cp)
	}
	return res
}

func (r *memRepo) byPrimary(t *testing.T, id string) *model.Message {
	t.Helper()
	for _, m := range r.all() {
		if m.PrimaryID == id {
			return m
		}
	}
	t.Fatalf("no message with primary id %q", id)
	return nil
}

// recordingEmitter 同步记录事件
type recordingEmitter struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (e *recordingEmitter) Emit(ev broadcast.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) kinds() []broadcast.EventKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make([]broadcast.EventKind, 0, len(e.events))
	for _, ev := range e.events {
		res = append(res, ev.Kind)
	}
	return res
}

func (e *recordingEmitter) count(kind broadcast.EventKind) int {
	n := 0
	for _, k := range e.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

// memCache 记录失效次数，代数语义与 Redis 实现一致
type memCache struct {
	list        []*model.ConversationSummary
	ok          bool
	gen         int64
	invalidated int
}

func (c *memCache) Get(context.Context) ([]*model.ConversationSummary, int64, bool) {
	return c.list, c.gen, c.ok
}

func (c *memCache) Set(_ context.Context, gen int64, list []*model.ConversationSummary) {
	if gen != c.gen {
		return
	}
	c.list, c.ok = list, true
}

func (c *memCache) Invalidate(context.Context) {
	c.list, c.ok = nil, false
	c.gen++
	c.invalidated++
}

type memContacts struct {
	got []*model.Contact
}

func (c *memContacts) Upsert(_ context.Context, contacts []*model.Contact) error {
	c.got = append(c.got, contacts...)
	return nil
}

var errBoom = errors.New("connection reset")

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
