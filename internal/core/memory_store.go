package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a HistoryStore kept in process memory. It retains the
// newest capacity records and is used when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	records  []HistoryRecord // oldest first
}

// NewMemoryStore creates a store holding at most capacity records.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultHistoryLimit
	}
	return &MemoryStore{capacity: capacity}
}

// InsertDetection implements HistoryStore.
func (m *MemoryStore) InsertDetection(_ context.Context, rec HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
	if over := len(m.records) - m.capacity; over > 0 {
		m.records = append([]HistoryRecord(nil), m.records[over:]...)
	}
	return nil
}

// GetDetection implements HistoryStore.
func (m *MemoryStore) GetDetection(_ context.Context, id uuid.UUID) (HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return HistoryRecord{}, ErrDetectionNotFound
}

// ListDetections implements HistoryStore.
func (m *MemoryStore) ListDetections(_ context.Context, limit int) ([]HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]HistoryRecord, 0, min(limit, len(m.records)))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := m.records[i]
		rec.Preview = nil
		out = append(out, rec)
	}
	return out, nil
}

// PruneDetections implements HistoryStore.
func (m *MemoryStore) PruneDetections(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	for _, rec := range m.records {
		if !rec.CreatedAt.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	pruned := int64(len(m.records) - len(kept))
	clear(m.records[len(kept):])
	m.records = kept
	return pruned, nil
}
