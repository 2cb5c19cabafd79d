// Package events carries progress and recovered-error records from the
// rewriters to whoever presents them. Library code never prints.
package events

import (
	"context"
	"log/slog"
	"sync"
)

// Level mirrors the slog levels used by the CLI.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Event is one structured progress or error record.
type Event struct {
	Level   Level
	File    string // empty for run-level events
	Line    int    // 0 when the event is not tied to a line
	Message string
	Err     error
}

// Sink receives events. Implementations must be safe for use by one
// goroutine at a time; Recorder and the slog sink are safe for concurrent use.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

type discard struct{}

func (discard) Emit(Event) {}

// Discard drops every event.
var Discard Sink = discard{}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many recorded events have the given level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Level == level {
			n++
		}
	}
	return n
}

type slogSink struct {
	logger *slog.Logger
}

// NewSlogSink renders events through logger.
func NewSlogSink(logger *slog.Logger) Sink {
	return &slogSink{logger: logger}
}

func (s *slogSink) Emit(e Event) {
	attrs := make([]slog.Attr, 0, 3)
	if e.File != "" {
		attrs = append(attrs, slog.String("file", e.File))
	}
	if e.Line > 0 {
		attrs = append(attrs, slog.Int("line", e.Line))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}
	s.logger.LogAttrs(context.Background(), e.Level.slogLevel(), e.Message, attrs...)
}
