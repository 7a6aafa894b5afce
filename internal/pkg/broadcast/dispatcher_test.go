package broadcast

import (
	"Courier/internal/model"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	name string
	err  error
	mu   sync.Mutex
	got  []Event
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ev)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestDispatcherDeliversToAllSinks(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("boom")}
	ok := &recordingSink{name: "ok"}
	d := NewDispatcher(2, 16, time.Second, failing, ok)

	for i := 0; i < 10; i++ {
		d.Emit(MessageCreated(&model.Message{ConversationKey: "k"}))
	}
	d.Close()

	if failing.count() != 10 || ok.count() != 10 {
		t.Fatalf("failing=%d ok=%d, want 10 each", failing.count(), ok.count())
	}
	if d.Dropped() != 0 {
		t.Fatalf("dropped = %d", d.Dropped())
	}
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	sink := &recordingSink{name: "s"}
	d := NewDispatcher(1, 1, time.Second, sink)
	d.Close()
	d.Emit(StatusChanged(&model.Message{ConversationKey: "k"}, "abc", model.StatusRead))
	d.Close()

	if sink.count() != 0 {
		t.Fatalf("event delivered after close")
	}
	if d.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", d.Dropped())
	}
}

func TestStatusChangedEvent(t *testing.T) {
	m := &model.Message{ConversationKey: "k"}
	ev := StatusChanged(m, "wamid.1", model.StatusDelivered)
	if ev.Kind != KindStatusChanged || ev.Echo != "wamid.1" || ev.Status != model.StatusDelivered {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Message != nil {
		t.Fatal("status events should not carry the full message")
	}
}

func TestDispatcherAccountsForEventsRacingClose(t *testing.T) {
	for round := 0; round < 20; round++ {
		sink := &recordingSink{name: "s"}
		d := NewDispatcher(2, 1024, time.Second, sink)

		const emitters, perEmitter = 4, 50
		var wg sync.WaitGroup
		wg.Add(emitters)
		for i := 0; i < emitters; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < perEmitter; j++ {
					d.Emit(MessageCreated(&model.Message{ConversationKey: "k"}))
				}
			}()
		}
		d.Close()
		wg.Wait()

		if got := int64(sink.count()) + d.Dropped(); got != emitters*perEmitter {
			t.Fatalf("round %d: delivered %d + dropped %d != %d", round, sink.count(), d.Dropped(), emitters*perEmitter)
		}
	}
}
