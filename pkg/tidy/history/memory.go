package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// MemoryStore is an in-process Store. Ids start at 1 and increase
// monotonically; Clear does not reset them.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []Entry
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, now: time.Now}
}

// InsertHistory implements Store.
func (m *MemoryStore) InsertHistory(_ context.Context, e *Entry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := *e
	row.ID = m.nextID
	row.CreatedAt = m.now()
	row.Payload = nil
	row.Details = append([]byte(nil), e.Details...)
	m.nextID++
	m.entries = append(m.entries, row)
	return row.ID, nil
}

// GetHistory implements Store.
func (m *MemoryStore) GetHistory(_ context.Context, id int64) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("history entry %d: %w", id, types.ErrNotFound)
}

// ListHistory implements Store.
func (m *MemoryStore) ListHistory(_ context.Context, limit, offset int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Entry
	for i := len(m.entries) - 1 - offset; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.entries[i])
	}
	return out, nil
}

// MarkHistoryUndone implements Store.
func (m *MemoryStore) MarkHistoryUndone(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries[i].Undone = true
			return nil
		}
	}
	return fmt.Errorf("history entry %d: %w", id, types.ErrNotFound)
}

// ClearHistory implements Store.
func (m *MemoryStore) ClearHistory(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}
