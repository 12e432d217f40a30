package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
)

// HistoryStore keeps the most recent maxRecords history entries per user.
// Appending beyond the bound trims the oldest entries, so records have
// ring-buffer semantics rather than stable absolute positions.
type HistoryStore struct {
	mu         sync.RWMutex
	records    map[string][]*entity.HistoryRecord
	maxRecords int
}

func NewHistoryStore(maxRecords int) *HistoryStore {
	if maxRecords <= 0 {
		maxRecords = 100
	}
	return &HistoryStore{
		records:    make(map[string][]*entity.HistoryRecord),
		maxRecords: maxRecords,
	}
}

func (s *HistoryStore) RecordToolCall(_ context.Context, record *entity.HistoryRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	list := append(s.records[record.UserID], record)
	if overflow := len(list) - s.maxRecords; overflow > 0 {
		list = list[overflow:]
	}
	s.records[record.UserID] = list
	return record.ID, nil
}

func (s *HistoryStore) UpdateRecord(_ context.Context, userID, recordID string, update map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records[userID] {
		if record.ID != recordID {
			continue
		}
		applyUpdate(record, update)
		return true, nil
	}
	return false, nil
}

func (s *HistoryStore) ListByUser(_ context.Context, userID string) ([]*entity.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.records[userID]
	out := make([]*entity.HistoryRecord, len(list))
	copy(out, list)
	return out, nil
}

func applyUpdate(record *entity.HistoryRecord, update map[string]interface{}) {
	for key, val := range update {
		switch key {
		case "summary":
			if s, ok := val.(string); ok {
				record.Summary = s
			}
		case "status":
			if s, ok := val.(string); ok {
				record.Status = s
			}
		case "plan_status":
			if s, ok := val.(string); ok {
				record.PlanStatus = s
			}
		case "result":
			record.Result = val
		}
	}
}
