package analytics

import (
	"context"
	"sync"
	"time"
)

// MemoryEventStore is an in-memory EventStore for tests.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryEventStore creates an empty in-memory event store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (m *MemoryEventStore) Insert(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryEventStore) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Event
	for _, e := range m.events {
		if inRange(e.CreatedAt, start, end) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MemoryEventStore) SessionsByTimeRange(ctx context.Context, start, end time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	var sessions []string
	for _, e := range m.events {
		if e.SessionID == "" || !inRange(e.CreatedAt, start, end) {
			continue
		}
		if _, ok := seen[e.SessionID]; ok {
			continue
		}
		seen[e.SessionID] = struct{}{}
		sessions = append(sessions, e.SessionID)
	}
	return sessions, nil
}

// MemoryTokenUsageStore is an in-memory TokenUsageStore for tests.
type MemoryTokenUsageStore struct {
	mu      sync.RWMutex
	records []TokenUsage
}

// NewMemoryTokenUsageStore creates an empty in-memory token usage store.
func NewMemoryTokenUsageStore() *MemoryTokenUsageStore {
	return &MemoryTokenUsageStore{}
}

func (m *MemoryTokenUsageStore) Insert(ctx context.Context, usage TokenUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, usage)
	return nil
}

func (m *MemoryTokenUsageStore) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]TokenUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []TokenUsage
	for _, r := range m.records {
		if inRange(r.CreatedAt, start, end) {
			result = append(result, r)
		}
	}
	return result, nil
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
