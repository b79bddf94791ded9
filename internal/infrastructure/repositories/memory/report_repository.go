package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"
)

type MemoryReportRepository struct {
	reports map[domain.SessionID]*domain.SessionQualityReport
	mu      sync.RWMutex
}

func NewMemoryReportRepository() ports.ReportRepository {
	return &MemoryReportRepository{
		reports: make(map[domain.SessionID]*domain.SessionQualityReport),
	}
}

func (r *MemoryReportRepository) Save(ctx context.Context, report *domain.SessionQualityReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *report
	r.reports[report.SessionID] = &copied
	return nil
}

func (r *MemoryReportRepository) GetBySession(ctx context.Context, sessionID domain.SessionID) (*domain.SessionQualityReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, exists := r.reports[sessionID]
	if !exists {
		return nil, domain.ErrReportNotFound
	}

	copied := *report
	return &copied, nil
}

func (r *MemoryReportRepository) FindByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.SessionQualityReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.SessionQualityReport
	for _, report := range r.reports {
		if report.StartTime.Before(start) || report.StartTime.After(end) {
			continue
		}
		copied := *report
		matched = append(matched, &copied)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartTime.Before(matched[j].StartTime)
	})

	return matched, nil
}
