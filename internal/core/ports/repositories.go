package ports

import (
	"context"
	"time"

	"telequal/internal/core/domain"
)

// SampleRepository is the append-only durable store for scored metric
// samples. Re-appending the same logical sample is acceptable; samples
// are keyed by (session, participant, captured_at).
type SampleRepository interface {
	Append(ctx context.Context, sample *domain.MetricSample) error
	FindBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.MetricSample, error)
	CountBySession(ctx context.Context, sessionID domain.SessionID) (int, error)
}

// ReportRepository stores generated session reports write-once and
// serves range queries for aggregate statistics.
type ReportRepository interface {
	Save(ctx context.Context, report *domain.SessionQualityReport) error
	GetBySession(ctx context.Context, sessionID domain.SessionID) (*domain.SessionQualityReport, error)
	FindByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.SessionQualityReport, error)
}

// AlertRepository keeps the dispatch state used for cooldown enforcement.
type AlertRepository interface {
	Get(ctx context.Context, sessionID domain.SessionID, conditionKey string) (*domain.AlertRecord, error)
	Put(ctx context.Context, record *domain.AlertRecord) error
	Delete(ctx context.Context, sessionID domain.SessionID, conditionKey string) error
	ListBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.AlertRecord, error)
}
