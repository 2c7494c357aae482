package logging

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DiagnosticEntry is one retained log line.
type DiagnosticEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
}

// DiagnosticsBuffer implements zerolog.Hook to retain the last N log
// lines at or above a minimum level in memory, so httpapi can expose a
// recent-activity endpoint without a database.
type DiagnosticsBuffer struct {
	mu       sync.Mutex
	entries  []DiagnosticEntry
	capacity int
	minLevel zerolog.Level
}

// NewDiagnosticsBuffer creates a ring buffer retaining up to capacity
// entries at or above minLevel.
func NewDiagnosticsBuffer(capacity int, minLevel zerolog.Level) *DiagnosticsBuffer {
	if capacity <= 0 {
		capacity = 256
	}
	return &DiagnosticsBuffer{capacity: capacity, minLevel: minLevel}
}

// Run implements zerolog.Hook.
func (b *DiagnosticsBuffer) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level < b.minLevel {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, DiagnosticEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
	})
	if overflow := len(b.entries) - b.capacity; overflow > 0 {
		b.entries = b.entries[overflow:]
	}
}

// Recent returns a copy of the retained entries, oldest first.
func (b *DiagnosticsBuffer) Recent() []DiagnosticEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]DiagnosticEntry, len(b.entries))
	copy(out, b.entries)
	return out
}
