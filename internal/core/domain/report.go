package domain

import "time"

// ParticipantSummary is the per-participant slice of a session report.
type ParticipantSummary struct {
	ParticipantID        ParticipantID   `json:"participant_id"`
	Role                 ParticipantRole `json:"role"`
	SampleCount          int             `json:"sample_count"`
	AverageQuality       float64         `json:"average_quality"`
	ConnectionIssueCount int             `json:"connection_issue_count"`
	ReconnectionCount    int             `json:"reconnection_count"`
}

// SessionQualityReport is the immutable summary of one finished (or
// in-progress) consultation session. Reports are generated on demand
// and persisted write-once; regeneration produces a new report.
type SessionQualityReport struct {
	SessionID       SessionID            `json:"session_id"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         time.Time            `json:"end_time"`
	DurationSeconds float64              `json:"duration_seconds"`
	Participants    []ParticipantSummary `json:"participants"`
	OverallQuality  float64              `json:"overall_quality"`
	MajorIssues     []string             `json:"major_issues"`
	Recommendations []string             `json:"recommendations"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// IssueFrequency is one entry of the common-issues ranking.
type IssueFrequency struct {
	Issue     string `json:"issue"`
	Frequency int    `json:"frequency"`
}

// TrendPoint is one calendar day of the quality trend, keyed by the
// report's start day.
type TrendPoint struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Quality float64 `json:"quality"`
}

// AggregateStatistics summarizes all session reports inside a time window.
type AggregateStatistics struct {
	TotalSessions          int              `json:"total_sessions"`
	AverageQuality         float64          `json:"average_quality"`
	AverageDurationSeconds float64          `json:"average_duration_seconds"`
	CommonIssues           []IssueFrequency `json:"common_issues"`
	QualityTrend           []TrendPoint     `json:"quality_trend"`
}
