package broadcast

import (
	"context"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultWorkers = 4
	defaultBuffer  = 1024
	defaultTimeout = 3 * time.Second
)

// Dispatcher 异步事件分发：Emit 入队即返回，由工作池投递到所有下游
type Dispatcher struct {
	sinks    []Broadcaster
	queue    chan Event
	timeout  time.Duration
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	dropped  atomic.Int64

	// mu 保证 Close 之后不再有事件入队
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(workers, buffer int, timeout time.Duration, sinks ...Broadcaster) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	d := &Dispatcher{
		sinks:    sinks,
		queue:    make(chan Event, buffer),
		timeout:  timeout,
		stopChan: make(chan struct{}),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	log.Info("Event dispatcher started", "workers", workers, "sinks", names)
	return d
}

// Emit 队列已满或已关闭时丢弃事件
func (d *Dispatcher) Emit(ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.dropped.Add(1)
		log.Warn("Event queue full, dropping event", "kind", ev.Kind, "conversation", ev.ConversationKey)
	}
}

// Dropped 被丢弃的事件数
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Close 停止接收新事件，投递完队列中剩余事件后返回
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.stopChan)
		d.mu.Unlock()
		d.wg.Wait()
		log.Info("Event dispatcher shut down gracefully", "dropped", d.dropped.Load())
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-d.stopChan:
			for {
				select {
				case ev := <-d.queue:
					d.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := sink.Publish(ctx, ev)
		cancel()
		if err != nil {
			log.Warn("Publish event failed",
				"sink", sink.Name(),
				"kind", ev.Kind,
				"conversation", ev.ConversationKey,
				"err", err,
			)
		}
	}
}
