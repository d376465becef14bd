package feature

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation for tests and
// single-process setups.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

// NewMemoryStore creates an empty in-memory flag store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]Flag)}
}

func (m *MemoryStore) FindByName(ctx context.Context, name string) (*Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, ok := m.flags[name]
	if !ok {
		return nil, ErrFlagNotFound
	}
	return &flag, nil
}

func (m *MemoryStore) Create(ctx context.Context, flag *Flag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.flags[flag.Name]; ok {
		return ErrFlagExists
	}

	stored := *flag
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	m.flags[flag.Name] = stored
	return nil
}

func (m *MemoryStore) Upsert(ctx context.Context, flag *Flag) (*Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *flag
	if existing, ok := m.flags[flag.Name]; ok {
		// Preserve the original description and creation time on update.
		stored.Description = existing.Description
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}
	m.flags[flag.Name] = stored
	return &stored, nil
}

func (m *MemoryStore) ListAll(ctx context.Context) ([]Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Flag, 0, len(m.flags))
	for _, flag := range m.flags {
		result = append(result, flag)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
