package store

import (
	"context"
	"sort"
	"sync"

	"microforge/pulse/internal/domain"
)

// MemoryStore is a mutex-guarded map store, used when no database path is
// configured and by tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]domain.NotificationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]domain.NotificationRecord),
	}
}

func (s *MemoryStore) Create(ctx context.Context, record domain.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = record
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (domain.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return domain.NotificationRecord{}, domain.ErrNotFound
	}
	return record, nil
}

func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]domain.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]domain.NotificationRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].ID > records[j].ID
		}
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, id string) (domain.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return domain.NotificationRecord{}, domain.ErrNotFound
	}

	record.Read = true
	s.records[id] = record
	return record, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
