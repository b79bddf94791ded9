package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"telequal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeSampleStore is an in-memory sample store for aggregator tests.
type fakeSampleStore struct {
	mu      sync.Mutex
	samples map[domain.SessionID][]*domain.MetricSample
	failErr error
}

func newFakeSampleStore() *fakeSampleStore {
	return &fakeSampleStore{samples: make(map[domain.SessionID][]*domain.MetricSample)}
}

func (f *fakeSampleStore) Append(ctx context.Context, sample *domain.MetricSample) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *sample
	f.samples[sample.SessionID] = append(f.samples[sample.SessionID], &copied)
	return nil
}

func (f *fakeSampleStore) FindBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.MetricSample, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.MetricSample(nil), f.samples[sessionID]...), nil
}

func (f *fakeSampleStore) CountBySession(ctx context.Context, sessionID domain.SessionID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.samples[sessionID]), nil
}

func newTestAggregator(t *testing.T, store *fakeSampleStore) *SessionAggregator {
	t.Helper()
	return NewSessionAggregator(
		NewScoringService(),
		NewThresholdStore(domain.DefaultQualityThresholds()),
		store,
		time.Second,
		zaptest.NewLogger(t).Sugar(),
	)
}

func TestIngestRejectsInvalidSample(t *testing.T) {
	agg := newTestAggregator(t, newFakeSampleStore())

	err := agg.Ingest(context.Background(), &domain.MetricSample{
		SessionID:       "",
		ParticipantID:   "p1",
		Role:            domain.RolePatient,
		ConnectionState: domain.StateConnected,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidSample)
}

func TestIngestScoresAndPersists(t *testing.T) {
	store := newFakeSampleStore()
	agg := newTestAggregator(t, store)

	sample := healthySample()
	err := agg.Ingest(context.Background(), sample)
	require.NoError(t, err)

	assert.NotEmpty(t, sample.ID)
	assert.False(t, sample.CapturedAt.IsZero())
	assert.Equal(t, 100, sample.QualityScore)

	stored, err := store.FindBySession(context.Background(), sample.SessionID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 100, stored[0].QualityScore)
}

func TestIngestWrapsPersistenceFailure(t *testing.T) {
	store := newFakeSampleStore()
	store.failErr = errors.New("disk gone")
	agg := newTestAggregator(t, store)

	err := agg.Ingest(context.Background(), healthySample())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestSummarizeEmptySessionReturnsNoData(t *testing.T) {
	agg := newTestAggregator(t, newFakeSampleStore())

	_, err := agg.Summarize(context.Background(), "nothing-here")

	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestSummarizeTimeoutMapsToErrTimeout(t *testing.T) {
	store := newFakeSampleStore()
	store.failErr = context.DeadlineExceeded
	agg := newTestAggregator(t, store)

	_, err := agg.Summarize(context.Background(), "s1")

	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestSummarizeComputesParticipantAverages(t *testing.T) {
	store := newFakeSampleStore()
	agg := newTestAggregator(t, store)

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		s := healthySample()
		s.SessionID = "consult-1"
		s.ParticipantID = "doctor-1"
		s.Role = domain.RoleDoctor
		s.CapturedAt = base.Add(time.Duration(i) * 5 * time.Second)
		require.NoError(t, agg.Ingest(ctx, s))
	}
	for i := 0; i < 4; i++ {
		s := healthySample()
		s.SessionID = "consult-1"
		s.ParticipantID = "patient-1"
		s.Role = domain.RolePatient
		s.Video.PacketsReceived = 950
		s.Video.PacketsLost = 50 // 5% loss, score 90
		s.CapturedAt = base.Add(time.Duration(i)*5*time.Second + time.Second)
		require.NoError(t, agg.Ingest(ctx, s))
	}

	report, err := agg.Summarize(ctx, "consult-1")
	require.NoError(t, err)

	require.Len(t, report.Participants, 2)
	assert.Equal(t, domain.ParticipantID("doctor-1"), report.Participants[0].ParticipantID)
	assert.InDelta(t, 100.0, report.Participants[0].AverageQuality, 0.001)
	assert.InDelta(t, 90.0, report.Participants[1].AverageQuality, 0.001)
	assert.InDelta(t, 95.0, report.OverallQuality, 0.001)
	assert.InDelta(t, 16.0, report.DurationSeconds, 0.001)

	// Half the samples carry the video loss issue, well past the major
	// issue share.
	assert.Contains(t, report.MajorIssues, "high video packet loss")
	assert.Contains(t, report.Recommendations,
		"Check connection stability and prefer a wired connection over WiFi")
}

func TestSummarizeIsReproducible(t *testing.T) {
	store := newFakeSampleStore()
	agg := newTestAggregator(t, store)

	ctx := context.Background()
	base := time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		s := healthySample()
		s.SessionID = "consult-2"
		s.CapturedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, agg.Ingest(ctx, s))
	}

	first, err := agg.Summarize(ctx, "consult-2")
	require.NoError(t, err)
	second, err := agg.Summarize(ctx, "consult-2")
	require.NoError(t, err)

	second.GeneratedAt = first.GeneratedAt
	assert.Equal(t, first, second)
}

func TestSummarizeCountsReconnections(t *testing.T) {
	store := newFakeSampleStore()
	agg := newTestAggregator(t, store)

	ctx := context.Background()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	states := []domain.ConnectionState{
		domain.StateConnected,
		domain.StateDisconnected,
		domain.StateConnecting,
		domain.StateConnected,
	}
	for i, state := range states {
		s := healthySample()
		s.SessionID = "consult-3"
		s.ConnectionState = state
		if state != domain.StateConnected {
			s.Video = nil
			s.Audio = nil
			s.Network = nil
		}
		s.CapturedAt = base.Add(time.Duration(i) * 5 * time.Second)
		require.NoError(t, agg.Ingest(ctx, s))
	}

	report, err := agg.Summarize(ctx, "consult-3")
	require.NoError(t, err)

	require.Len(t, report.Participants, 1)
	assert.Equal(t, 1, report.Participants[0].ConnectionIssueCount)
	assert.Equal(t, 1, report.Participants[0].ReconnectionCount)
}

func TestSummarizeFlagsConsistentlyLowQuality(t *testing.T) {
	store := newFakeSampleStore()
	agg := newTestAggregator(t, store)

	ctx := context.Background()
	base := time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC)

	// 4 of 10 samples are failed connections scoring 50 minus more
	// penalties, beating the 30% low quality share.
	for i := 0; i < 10; i++ {
		s := healthySample()
		s.SessionID = "consult-4"
		s.CapturedAt = base.Add(time.Duration(i) * 5 * time.Second)
		if i%3 == 0 {
			s.ConnectionState = domain.StateFailed
			s.Video = nil
			s.Audio = nil
			s.Network = &domain.NetworkStats{RoundTripTimeMs: 900}
		}
		require.NoError(t, agg.Ingest(ctx, s))
	}

	report, err := agg.Summarize(ctx, "consult-4")
	require.NoError(t, err)

	assert.Contains(t, report.MajorIssues, "consistently low quality")
}
