package ledger

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger is a mutexed in-memory ledger for tests and dry runs.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]time.Time)}
}

func entryKey(subjectKey, titleNumber string) string {
	return subjectKey + "#" + titleNumber
}

func (l *MemoryLedger) HasBeenSurfaced(ctx context.Context, subjectKey, titleNumber string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[entryKey(subjectKey, titleNumber)]
	return ok, nil
}

// RecordSurfaced is insert-if-absent: recording an existing pair is a no-op
// and the original firstSurfacedAt is kept.
func (l *MemoryLedger) RecordSurfaced(ctx context.Context, subjectKey, titleNumber string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := entryKey(subjectKey, titleNumber)
	if _, ok := l.entries[k]; !ok {
		l.entries[k] = at
	}
	return nil
}

// FirstSurfacedAt returns when a pair was first recorded, for assertions.
func (l *MemoryLedger) FirstSurfacedAt(subjectKey, titleNumber string) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	at, ok := l.entries[entryKey(subjectKey, titleNumber)]
	return at, ok
}

// Len reports the number of recorded pairs.
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
