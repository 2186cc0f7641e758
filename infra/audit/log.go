// Package audit provides the audit trail sinks.
package audit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/backoffice/pkg/audit"
)

// LogSink writes audit entries to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink logging through logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "audit")}
}

// Record implements audit.Sink.
func (s *LogSink) Record(ctx context.Context, e audit.Entry) {
	s.logger.InfoContext(ctx, "audit",
		"actor", e.Actor,
		"action", e.Action,
		"target", e.Target,
		"detail", e.Detail,
		"at", e.At,
	)
}

// MemorySink keeps entries in memory. Used by tests.
type MemorySink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements audit.Sink.
func (s *MemorySink) Record(_ context.Context, e audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// Entries returns a copy of the recorded entries.
func (s *MemorySink) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Actions returns the recorded action names in order.
func (s *MemorySink) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}
