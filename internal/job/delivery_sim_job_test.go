package job

import (
	"Courier/internal/api/config"
	"Courier/internal/model"
	"Courier/internal/service"
	"context"
	"errors"
	"testing"
	"time"
)

type advanceCall struct {
	from, to  model.Status
	olderThan time.Duration
}

type fakeMessageService struct {
	service.MessageService
	calls []advanceCall
	err   error
}

func (f *fakeMessageService) AdvanceOutgoing(_ context.Context, from, to model.Status, olderThan time.Duration, _ int64) (int, error) {
	f.calls = append(f.calls, advanceCall{from, to, olderThan})
	return 1, f.err
}


func TestDeliverySimulationAdvancesBothStages(t *testing.T) {
	svc := &fakeMessageService{}
	j := NewDeliverySimulationJob(svc, config.DeliveryConfig{DeliveredAfter: 3, ReadAfter: 10})
	j.run(context.Background())

	want := []advanceCall{
		{model.StatusSent, model.StatusDelivered, 3 * time.Second},
		{model.StatusDelivered, model.StatusRead, 10 * time.Second},
	}
	if len(svc.calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(svc.calls), len(want))
	}
	for i := range want {
		if svc.calls[i] != want[i] {
			t.Errorf("call %d: got %+v, want %+v", i, svc.calls[i], want[i])
		}
	}
}

func TestDeliverySimulationContinuesAfterError(t *testing.T) {
	svc := &fakeMessageService{err: errors.New("mongo down")}
	j := NewDeliverySimulationJob(svc, config.DeliveryConfig{})
	j.run(context.Background())
	if len(svc.calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(svc.calls))
	}
}
