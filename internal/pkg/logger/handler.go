package logger

import (
	"context"
	log "log/slog"
)

// TeeHandler 将日志分发到多个 Handler，任一 Handler 启用即处理
type TeeHandler struct {
	handlers []log.Handler
}

func (s *TeeHandler) Enabled(ctx context.Context, level log.Level) bool {
	for _, h := range s.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (s *TeeHandler) Handle(ctx context.Context, r log.Record) error {
	var firstErr error
	for _, h := range s.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *TeeHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &TeeHandler{handlers: mapHandlers(s.handlers, func(h log.Handler) log.Handler { return h.WithAttrs(attrs) })}
}

func (s *TeeHandler) WithGroup(name string) log.Handler {
	return &TeeHandler{handlers: mapHandlers(s.handlers, func(h log.Handler) log.Handler { return h.WithGroup(name) })}
}

func mapHandlers(hs []log.Handler, fn func(log.Handler) log.Handler) []log.Handler {
	res := make([]log.Handler, len(hs))
	for i, h := range hs {
		res[i] = fn(h)
	}
	return res
}

// RemoteFilterHandler 只上报带 trace_id 的日志，启动期日志只留在本地
type RemoteFilterHandler struct {
	next log.Handler
}

func (s *RemoteFilterHandler) Enabled(ctx context.Context, level log.Level) bool {
	return s.next.Enabled(ctx, level)
}

func (s *RemoteFilterHandler) Handle(ctx context.Context, r log.Record) error {
	if !hasTraceID(r) {
		return nil
	}
	return s.next.Handle(ctx, r)
}

func (s *RemoteFilterHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &RemoteFilterHandler{next: s.next.WithAttrs(attrs)}
}

func (s *RemoteFilterHandler) WithGroup(name string) log.Handler {
	return &RemoteFilterHandler{next: s.next.WithGroup(name)}
}

func hasTraceID(r log.Record) bool {
	found := false
	r.Attrs(func(a log.Attr) bool {
		if a.Key == TraceIDKey && a.Value.String() != "" {
			found = true
			return false
		}
		return true
	})
	return found
}
