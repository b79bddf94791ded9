package memory

import (
	"context"
	"sync"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"
)

type alertKey struct {
	sessionID    domain.SessionID
	conditionKey string
}

type MemoryAlertRepository struct {
	records map[alertKey]*domain.AlertRecord
	mu      sync.RWMutex
}

func NewMemoryAlertRepository() ports.AlertRepository {
	return &MemoryAlertRepository{
		records: make(map[alertKey]*domain.AlertRecord),
	}
}

// Get returns nil without error when no record exists; absence is a
// normal state for the dispatcher, not a failure.
func (r *MemoryAlertRepository) Get(ctx context.Context, sessionID domain.SessionID, conditionKey string) (*domain.AlertRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[alertKey{sessionID, conditionKey}]
	if !exists {
		return nil, nil
	}

	copied := *record
	return &copied, nil
}

func (r *MemoryAlertRepository) Put(ctx context.Context, record *domain.AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *record
	r.records[alertKey{record.SessionID, record.ConditionKey}] = &copied
	return nil
}

func (r *MemoryAlertRepository) Delete(ctx context.Context, sessionID domain.SessionID, conditionKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, alertKey{sessionID, conditionKey})
	return nil
}

func (r *MemoryAlertRepository) ListBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.AlertRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*domain.AlertRecord
	for key, record := range r.records {
		if key.sessionID == sessionID {
			copied := *record
			records = append(records, &copied)
		}
	}
	return records, nil
}
