package domain

import "time"

type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// AlertRecord tracks the dispatch state of one alert condition within a
// session. At most one notification per (SessionID, ConditionKey) may be
// dispatched inside the cooldown window.
type AlertRecord struct {
	ID              string        `json:"id"`
	SessionID       SessionID     `json:"session_id"`
	ConditionKey    string        `json:"condition_key"`
	Severity        AlertSeverity `json:"severity"`
	Score           int           `json:"score"`
	Issues          []string      `json:"issues,omitempty"`
	FirstRaisedAt   time.Time     `json:"first_raised_at"`
	LastRaisedAt    time.Time     `json:"last_raised_at"`
	SuppressedUntil time.Time     `json:"suppressed_until"`
}

// Notification is the payload handed to the external delivery channel.
type Notification struct {
	TargetParticipant ParticipantID `json:"target_participant"`
	Title             string        `json:"title"`
	Message           string        `json:"message"`
	Priority          string        `json:"priority"`
	SessionID         SessionID     `json:"session_id"`
	Score             int           `json:"score"`
	Issues            []string      `json:"issues,omitempty"`
}
