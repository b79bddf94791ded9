package memory

import (
	"context"
	"sync"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"
)

type MemorySampleRepository struct {
	samples map[domain.SessionID][]*domain.MetricSample
	mu      sync.RWMutex
}

func NewMemorySampleRepository() ports.SampleRepository {
	return &MemorySampleRepository{
		samples: make(map[domain.SessionID][]*domain.MetricSample),
	}
}

func (r *MemorySampleRepository) Append(ctx context.Context, sample *domain.MetricSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *sample
	r.samples[sample.SessionID] = append(r.samples[sample.SessionID], &copied)
	return nil
}

func (r *MemorySampleRepository) FindBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.MetricSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.samples[sessionID]
	out := make([]*domain.MetricSample, len(stored))
	for i, s := range stored {
		copied := *s
		out[i] = &copied
	}
	return out, nil
}

func (r *MemorySampleRepository) CountBySession(ctx context.Context, sessionID domain.SessionID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.samples[sessionID]), nil
}
