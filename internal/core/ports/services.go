package ports

import (
	"context"
	"time"

	"telequal/internal/core/domain"
)

// QualityScorer derives a 0-100 score and ordered issue tags from raw
// sample fields. Implementations must be deterministic.
type QualityScorer interface {
	Score(sample *domain.MetricSample, thresholds domain.QualityThresholds) (int, []string)
}

// SessionService ingests scored samples and produces session summaries.
type SessionService interface {
	Ingest(ctx context.Context, sample *domain.MetricSample) error
	Summarize(ctx context.Context, sessionID domain.SessionID) (*domain.SessionQualityReport, error)
}

// ProfileService recommends an encoding profile for a session based on
// its recent sample history.
type ProfileService interface {
	Observe(ctx context.Context, sample *domain.MetricSample) *domain.ProfileRecommendation
	CurrentProfile(sessionID domain.SessionID) domain.AdaptiveProfile
	EndSession(sessionID domain.SessionID)
}

// AlertService evaluates scored samples against severity bands and
// dispatches at most one notification per condition per cooldown window.
type AlertService interface {
	Evaluate(ctx context.Context, sample *domain.MetricSample)
	QueueDepth() int
	Close()
}

// ReportingService is the query facade. Reads are cheap and cacheable;
// GenerateSessionReport is the only write (write-once report records).
type ReportingService interface {
	GetSessionReport(ctx context.Context, sessionID domain.SessionID) (*domain.SessionQualityReport, error)
	GenerateSessionReport(ctx context.Context, sessionID domain.SessionID) (*domain.SessionQualityReport, error)
	GetAggregateStatistics(ctx context.Context, start, end time.Time, participantID domain.ParticipantID) (*domain.AggregateStatistics, error)
}

// NotificationService is the external delivery channel. Delivery is
// best-effort; the engine logs failures and never retries.
type NotificationService interface {
	Notify(ctx context.Context, notification *domain.Notification) error
}

// TelemetrySource supplies raw metric samples from the media layer.
// Implementations: a live websocket feed and a simulated generator.
type TelemetrySource interface {
	Run(ctx context.Context) error
	Name() string
}

// MetricsSink receives observability events from the core services.
// It is a passive sink: nothing in the engine reads it back.
type MetricsSink interface {
	ObserveSample(sample *domain.MetricSample)
	ObserveSessionDuration(seconds float64)
	RecordDisconnection(sessionID domain.SessionID)
	RecordReconnection(sessionID domain.SessionID)
	RecordAlert(severity domain.AlertSeverity)
	RecordAlertDropped()
	RecordProfileSwitch(from, to domain.ProfileTier)
	RecordStoreOperation(op string, seconds float64, err error)
}
