// Package logging provides the application's slog setup plus a handler that
// keeps recent WARN+ records in memory so serve mode can expose them for
// troubleshooting.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Event levels recorded in the buffer.
const (
	EventLevelError   = "error"
	EventLevelWarning = "warning"
	EventLevelInfo    = "info"
)

// Event categories.
const (
	CategoryAuth    = "auth"
	CategorySession = "session"
	CategoryCatalog = "catalog"
	CategoryStore   = "store"
	CategorySystem  = "system"
)

// Event is one buffered log record.
type Event struct {
	Time     time.Time         `json:"time"`
	Level    string            `json:"level"`
	Category string            `json:"category"`
	Message  string            `json:"message"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// EventBuffer is a fixed-size ring of recent events. Oldest entries are
// overwritten once the buffer is full.
type EventBuffer struct {
	mu    sync.Mutex
	ring  []Event
	next  int
	count int
}

// NewEventBuffer creates a buffer holding up to capacity events.
func NewEventBuffer(capacity int) *EventBuffer {
	if capacity <= 0 {
		capacity = 100
	}
	return &EventBuffer{ring: make([]Event, capacity)}
}

func (b *EventBuffer) add(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ring[b.next] = e
	b.next = (b.next + 1) % len(b.ring)
	if b.count < len(b.ring) {
		b.count++
	}
}

// Events returns the buffered events, oldest first.
func (b *EventBuffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Event, 0, b.count)
	start := b.next - b.count
	if start < 0 {
		start += len(b.ring)
	}
	for i := 0; i < b.count; i++ {
		out = append(out, b.ring[(start+i)%len(b.ring)])
	}
	return out
}

// EventBufferHandler is a slog.Handler that wraps another handler and also
// records WARN and ERROR level logs in an EventBuffer.
type EventBufferHandler struct {
	inner slog.Handler
	buf   *EventBuffer
	level slog.Level
	attrs []slog.Attr
}

// NewEventBufferHandler wraps inner so records at WARN and above also land
// in buf.
func NewEventBufferHandler(inner slog.Handler, buf *EventBuffer) *EventBufferHandler {
	return &EventBufferHandler{
		inner: inner,
		buf:   buf,
		level: slog.LevelWarn,
	}
}

// Enabled implements slog.Handler.
func (h *EventBufferHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventBufferHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.buf.add(h.toEvent(r))
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventBufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventBufferHandler{
		inner: h.inner.WithAttrs(attrs),
		buf:   h.buf,
		level: h.level,
		attrs: merged,
	}
}

// WithGroup implements slog.Handler.
func (h *EventBufferHandler) WithGroup(name string) slog.Handler {
	return &EventBufferHandler{
		inner: h.inner.WithGroup(name),
		buf:   h.buf,
		level: h.level,
		attrs: h.attrs,
	}
}

func (h *EventBufferHandler) toEvent(r slog.Record) Event {
	e := Event{
		Time:     r.Time,
		Level:    eventLevel(r.Level),
		Message:  r.Message,
		Attrs:    make(map[string]string, r.NumAttrs()+len(h.attrs)),
		Category: inferCategory(r.Message),
	}
	collect := func(a slog.Attr) bool {
		if a.Key == "category" {
			e.Category = a.Value.String()
			return true
		}
		e.Attrs[a.Key] = a.Value.String()
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)
	if len(e.Attrs) == 0 {
		e.Attrs = nil
	}
	return e
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return EventLevelError
	case level >= slog.LevelWarn:
		return EventLevelWarning
	default:
		return EventLevelInfo
	}
}

// inferCategory guesses a category from common message patterns when the
// record carries no explicit one.
func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "login") || strings.Contains(msg, "logout") || strings.Contains(msg, "auth"):
		return CategoryAuth
	case strings.Contains(msg, "session") || strings.Contains(msg, "token"):
		return CategorySession
	case strings.Contains(msg, "product") || strings.Contains(msg, "catalog"):
		return CategoryCatalog
	case strings.Contains(msg, "redis") || strings.Contains(msg, "store") || strings.Contains(msg, "snapshot"):
		return CategoryStore
	default:
		return CategorySystem
	}
}

// New builds the application logger: a text handler at the given level,
// wrapped so recent warnings and errors stay available in the returned
// buffer.
func New(w io.Writer, level string) (*slog.Logger, *EventBuffer) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	buf := NewEventBuffer(200)
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(NewEventBufferHandler(inner, buf)), buf
}
