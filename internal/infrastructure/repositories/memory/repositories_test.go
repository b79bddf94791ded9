package memory

import (
	"context"
	"testing"
	"time"

	"telequal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleRepositoryAppendAndFind(t *testing.T) {
	repo := NewMemorySampleRepository()
	ctx := context.Background()

	sample := &domain.MetricSample{
		ID:            "id-1",
		SessionID:     "s1",
		ParticipantID: "p1",
		QualityScore:  90,
	}
	require.NoError(t, repo.Append(ctx, sample))

	// Mutating the original must not affect the stored copy.
	sample.QualityScore = 10

	found, err := repo.FindBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 90, found[0].QualityScore)

	count, err := repo.CountBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	empty, err := repo.FindBySession(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReportRepositoryRoundTrip(t *testing.T) {
	repo := NewMemoryReportRepository()
	ctx := context.Background()

	_, err := repo.GetBySession(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrReportNotFound)

	report := &domain.SessionQualityReport{
		SessionID:      "s1",
		StartTime:      time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
		OverallQuality: 85,
	}
	require.NoError(t, repo.Save(ctx, report))

	fetched, err := repo.GetBySession(ctx, "s1")
	require.NoError(t, err)
	assert.InDelta(t, 85.0, fetched.OverallQuality, 0.001)

	// Regeneration supersedes the stored report.
	report.OverallQuality = 70
	require.NoError(t, repo.Save(ctx, report))
	fetched, err = repo.GetBySession(ctx, "s1")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, fetched.OverallQuality, 0.001)
}

func TestReportRepositoryTimeRange(t *testing.T) {
	repo := NewMemoryReportRepository()
	ctx := context.Background()

	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for i, id := range []domain.SessionID{"s1", "s2", "s3"} {
		require.NoError(t, repo.Save(ctx, &domain.SessionQualityReport{
			SessionID: id,
			StartTime: base.AddDate(0, 0, i),
		}))
	}

	found, err := repo.FindByTimeRange(ctx, base, base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, domain.SessionID("s1"), found[0].SessionID)
	assert.Equal(t, domain.SessionID("s2"), found[1].SessionID)
}

func TestAlertRepositoryLifecycle(t *testing.T) {
	repo := NewMemoryAlertRepository()
	ctx := context.Background()

	// Absence is not an error for alert records.
	record, err := repo.Get(ctx, "s1", "overall")
	require.NoError(t, err)
	assert.Nil(t, record)

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Put(ctx, &domain.AlertRecord{
		ID:              "a1",
		SessionID:       "s1",
		ConditionKey:    "overall",
		Severity:        domain.SeverityCritical,
		FirstRaisedAt:   now,
		LastRaisedAt:    now,
		SuppressedUntil: now.Add(time.Minute),
	}))
	require.NoError(t, repo.Put(ctx, &domain.AlertRecord{
		ID:           "a2",
		SessionID:    "s1",
		ConditionKey: "connection_lost",
		Severity:     domain.SeverityWarning,
	}))

	record, err = repo.Get(ctx, "s1", "overall")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.SeverityCritical, record.Severity)

	records, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	require.NoError(t, repo.Delete(ctx, "s1", "overall"))
	record, err = repo.Get(ctx, "s1", "overall")
	require.NoError(t, err)
	assert.Nil(t, record)
}
