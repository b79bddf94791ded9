package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"
	"telequal/pkg/utils"
	"telequal/pkg/validation"

	"go.uber.org/zap"
)

// SessionAggregator accepts raw samples, scores them and appends them to
// the durable store. Samples for one (session, participant) pair must
// arrive in non-decreasing captured_at order for transition detection to
// be correct; different participants and sessions are independent.
type SessionAggregator struct {
	scorer     ports.QualityScorer
	thresholds *ThresholdStore
	samples    ports.SampleRepository
	alerts     ports.AlertService
	profiles   ports.ProfileService
	metrics    ports.MetricsSink
	logger     *zap.SugaredLogger

	queryTimeout time.Duration

	// Last seen connection state per (session, participant), used to
	// detect reconnection/disconnection transitions at ingest time.
	stateMu    sync.Mutex
	lastStates map[participantKey]domain.ConnectionState
}

type participantKey struct {
	session     domain.SessionID
	participant domain.ParticipantID
}

// Thresholds for session-level issue flags.
const (
	frequentDisconnectionLimit = 3
	lowQualityScoreLimit       = 50
	lowQualitySampleShare      = 0.30
	// Share of samples an issue category must reach to count as major.
	majorIssueShare = 0.10
)

func NewSessionAggregator(
	scorer ports.QualityScorer,
	thresholds *ThresholdStore,
	samples ports.SampleRepository,
	queryTimeout time.Duration,
	logger *zap.SugaredLogger,
) *SessionAggregator {
	return &SessionAggregator{
		scorer:       scorer,
		thresholds:   thresholds,
		samples:      samples,
		queryTimeout: queryTimeout,
		logger:       logger,
		lastStates:   make(map[participantKey]domain.ConnectionState),
	}
}

// AttachConsumers wires the downstream consumers fed after each ingest.
// Both are optional; alert evaluation never blocks the ingest path.
func (s *SessionAggregator) AttachConsumers(alerts ports.AlertService, profiles ports.ProfileService) {
	s.alerts = alerts
	s.profiles = profiles
}

// AttachMetrics wires the observability sink.
func (s *SessionAggregator) AttachMetrics(metrics ports.MetricsSink) {
	s.metrics = metrics
}

// Ingest validates, scores and persists one sample, then feeds the alert
// dispatcher and profile selector. Collaborator failures other than
// persistence are isolated from the caller.
func (s *SessionAggregator) Ingest(ctx context.Context, sample *domain.MetricSample) error {
	if err := validation.ValidateSample(sample); err != nil {
		s.logger.Warnw("rejected invalid sample",
			"session_id", sample.SessionID,
			"participant_id", sample.ParticipantID,
			"error", err,
		)
		return fmt.Errorf("%w: %v", domain.ErrInvalidSample, err)
	}

	if sample.ID == "" {
		sample.ID = utils.GenerateID()
	}
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = time.Now()
	}

	score, issues := s.scorer.Score(sample, s.thresholds.Get())
	sample.QualityScore = score
	sample.Issues = issues

	s.trackTransition(sample)

	start := time.Now()
	err := s.samples.Append(ctx, sample)
	if s.metrics != nil {
		s.metrics.RecordStoreOperation("sample_append", time.Since(start).Seconds(), err)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if s.metrics != nil {
		s.metrics.ObserveSample(sample)
	}

	if s.alerts != nil {
		s.alerts.Evaluate(ctx, sample)
	}
	if s.profiles != nil {
		s.profiles.Observe(ctx, sample)
	}

	return nil
}

// trackTransition records reconnection and disconnection events based on
// the previous state seen for the same participant.
func (s *SessionAggregator) trackTransition(sample *domain.MetricSample) {
	key := participantKey{session: sample.SessionID, participant: sample.ParticipantID}

	s.stateMu.Lock()
	prev, seen := s.lastStates[key]
	s.lastStates[key] = sample.ConnectionState
	s.stateMu.Unlock()

	if !seen || prev == sample.ConnectionState {
		return
	}

	switch sample.ConnectionState {
	case domain.StateConnecting:
		s.logger.Infow("participant reconnecting",
			"session_id", sample.SessionID,
			"participant_id", sample.ParticipantID,
			"previous_state", prev,
		)
		if s.metrics != nil {
			s.metrics.RecordReconnection(sample.SessionID)
		}
	case domain.StateDisconnected, domain.StateFailed:
		s.logger.Warnw("participant disconnected",
			"session_id", sample.SessionID,
			"participant_id", sample.ParticipantID,
			"state", sample.ConnectionState,
		)
		if s.metrics != nil {
			s.metrics.RecordDisconnection(sample.SessionID)
		}
	}
}

// Summarize builds a SessionQualityReport from every sample persisted for
// the session. The computation only depends on the stored sample set, so
// summarizing the same set twice yields identical reports (modulo the
// generation timestamp).
func (s *SessionAggregator) Summarize(ctx context.Context, sessionID domain.SessionID) (*domain.SessionQualityReport, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	start := time.Now()
	samples, err := s.samples.FindBySession(queryCtx, sessionID)
	if s.metrics != nil {
		s.metrics.RecordStoreOperation("sample_find", time.Since(start).Seconds(), err)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if len(samples) == 0 {
		return nil, domain.ErrNoData
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].CapturedAt.Before(samples[j].CapturedAt)
	})

	report := buildReport(sessionID, samples)

	if s.metrics != nil {
		s.metrics.ObserveSessionDuration(report.DurationSeconds)
	}

	return report, nil
}

func buildReport(sessionID domain.SessionID, samples []*domain.MetricSample) *domain.SessionQualityReport {
	type participantState struct {
		summary   domain.ParticipantSummary
		scoreSum  int
		lastState domain.ConnectionState
		seen      bool
	}

	participants := make(map[domain.ParticipantID]*participantState)
	var order []domain.ParticipantID

	startTime := samples[0].CapturedAt
	endTime := samples[0].CapturedAt
	disconnections := 0
	lowQuality := 0
	issueCounts := make(map[string]int)

	for _, sample := range samples {
		if sample.CapturedAt.Before(startTime) {
			startTime = sample.CapturedAt
		}
		if sample.CapturedAt.After(endTime) {
			endTime = sample.CapturedAt
		}

		p, ok := participants[sample.ParticipantID]
		if !ok {
			p = &participantState{summary: domain.ParticipantSummary{
				ParticipantID: sample.ParticipantID,
				Role:          sample.Role,
			}}
			participants[sample.ParticipantID] = p
			order = append(order, sample.ParticipantID)
		}

		p.summary.SampleCount++
		p.scoreSum += sample.QualityScore

		switch sample.ConnectionState {
		case domain.StateDisconnected, domain.StateFailed:
			p.summary.ConnectionIssueCount++
			if p.seen && p.lastState != domain.StateDisconnected && p.lastState != domain.StateFailed {
				disconnections++
			}
		case domain.StateConnecting:
			if p.seen && p.lastState != domain.StateConnecting {
				p.summary.ReconnectionCount++
			}
		}
		p.lastState = sample.ConnectionState
		p.seen = true

		if sample.QualityScore < lowQualityScoreLimit {
			lowQuality++
		}
		for _, issue := range sample.Issues {
			issueCounts[issueCategory(issue)]++
		}
	}

	report := &domain.SessionQualityReport{
		SessionID:       sessionID,
		StartTime:       startTime,
		EndTime:         endTime,
		DurationSeconds: endTime.Sub(startTime).Seconds(),
		GeneratedAt:     time.Now(),
	}

	qualitySum := 0.0
	for _, id := range order {
		p := participants[id]
		p.summary.AverageQuality = float64(p.scoreSum) / float64(p.summary.SampleCount)
		qualitySum += p.summary.AverageQuality
		report.Participants = append(report.Participants, p.summary)
	}
	report.OverallQuality = qualitySum / float64(len(order))

	report.MajorIssues = majorIssues(issueCounts, len(samples))
	if disconnections > frequentDisconnectionLimit {
		report.MajorIssues = append(report.MajorIssues, "frequent disconnections")
	}
	if float64(lowQuality) > float64(len(samples))*lowQualitySampleShare {
		report.MajorIssues = append(report.MajorIssues, "consistently low quality")
	}
	report.Recommendations = deriveRecommendations(report.MajorIssues)

	return report
}

// issueCategory strips the measured value from an issue string so that
// occurrences of the same condition aggregate together.
func issueCategory(issue string) string {
	if idx := strings.Index(issue, ":"); idx >= 0 {
		return issue[:idx]
	}
	return issue
}

// majorIssues returns the issue categories seen in more than
// majorIssueShare of the samples, most frequent first.
func majorIssues(counts map[string]int, sampleCount int) []string {
	limit := int(float64(sampleCount) * majorIssueShare)

	type entry struct {
		issue string
		count int
	}
	var entries []entry
	for issue, count := range counts {
		if count > limit {
			entries = append(entries, entry{issue, count})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].issue < entries[j].issue
	})

	issues := make([]string, 0, len(entries))
	for _, e := range entries {
		issues = append(issues, e.issue)
	}
	return issues
}

var recommendationRules = []struct {
	match          string
	recommendation string
}{
	{"packet loss", "Check connection stability and prefer a wired connection over WiFi"},
	{"round-trip time", "Check available bandwidth and close other applications using the network"},
	{"frame rate", "Reduce video resolution or check CPU usage on the device"},
	{"disconnect", "Check network stability before the next consultation"},
	{"connection", "Check network stability before the next consultation"},
	{"audio", "Check audio devices and microphone levels"},
	{"low quality", "Consider lowering the video profile for future sessions"},
}

func deriveRecommendations(issues []string) []string {
	var recommendations []string
	seen := make(map[string]bool)
	for _, rule := range recommendationRules {
		for _, issue := range issues {
			if strings.Contains(issue, rule.match) && !seen[rule.recommendation] {
				seen[rule.recommendation] = true
				recommendations = append(recommendations, rule.recommendation)
				break
			}
		}
	}
	return recommendations
}

// EndSession drops the in-memory transition state for a finished session.
func (s *SessionAggregator) EndSession(sessionID domain.SessionID) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	for key := range s.lastStates {
		if key.session == sessionID {
			delete(s.lastStates, key)
		}
	}
}
