package services

import (
	"context"
	"testing"
	"time"

	"telequal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestSelector(t *testing.T) (*ProfileSelector, *time.Time) {
	t.Helper()

	selector := NewProfileSelector(DefaultProfileSelectorConfig(), zaptest.NewLogger(t).Sugar())

	current := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	selector.now = func() time.Time { return current }
	return selector, &current
}

func observeScore(selector *ProfileSelector, sessionID domain.SessionID, score int) *domain.ProfileRecommendation {
	return selector.Observe(context.Background(), &domain.MetricSample{
		SessionID:       sessionID,
		ParticipantID:   "p1",
		QualityScore:    score,
		ConnectionState: domain.StateConnected,
	})
}

func TestSelectorStartsAtInitialTier(t *testing.T) {
	selector, _ := newTestSelector(t)

	profile := selector.CurrentProfile("unknown-session")

	assert.Equal(t, domain.TierMedium, profile.Tier)
}

func TestSelectorSingleBadSampleDoesNotDowngrade(t *testing.T) {
	selector, _ := newTestSelector(t)

	rec := observeScore(selector, "s1", 20)

	assert.False(t, rec.Changed)
	assert.Equal(t, domain.TierMedium, rec.Profile.Tier)
}

func TestSelectorDowngradesAfterSustainedPoorQuality(t *testing.T) {
	selector, _ := newTestSelector(t)

	observeScore(selector, "s1", 30)
	observeScore(selector, "s1", 25)
	rec := observeScore(selector, "s1", 40)

	require.True(t, rec.Changed)
	assert.Equal(t, domain.TierLow, rec.Profile.Tier)
	assert.NotEmpty(t, rec.Optimizations)
	assert.Contains(t, rec.Optimizations[0], "reduced resolution")
}

func TestSelectorGoodSampleResetsPoorStreak(t *testing.T) {
	selector, _ := newTestSelector(t)

	observeScore(selector, "s1", 30)
	observeScore(selector, "s1", 25)
	observeScore(selector, "s1", 65) // resets the streak
	observeScore(selector, "s1", 30)
	rec := observeScore(selector, "s1", 25)

	assert.False(t, rec.Changed)
	assert.Equal(t, domain.TierMedium, rec.Profile.Tier)
}

func TestSelectorCooldownPreventsRapidSwitches(t *testing.T) {
	selector, clock := newTestSelector(t)

	for i := 0; i < 3; i++ {
		observeScore(selector, "s1", 20)
	}
	assert.Equal(t, domain.TierLow, selector.CurrentProfile("s1").Tier)

	// Another sustained poor run inside the cooldown window must not
	// switch again.
	for i := 0; i < 5; i++ {
		rec := observeScore(selector, "s1", 20)
		assert.False(t, rec.Changed)
	}
	assert.Equal(t, domain.TierLow, selector.CurrentProfile("s1").Tier)

	// After the cooldown the pending degradation applies.
	*clock = clock.Add(31 * time.Second)
	rec := observeScore(selector, "s1", 20)
	require.True(t, rec.Changed)
	assert.Equal(t, domain.TierAudioOnly, rec.Profile.Tier)
	assert.Equal(t, []string{"switched to audio-only"}, rec.Optimizations)
}

func TestSelectorUpgradesAfterSustainedExcellence(t *testing.T) {
	selector, clock := newTestSelector(t)

	for i := 0; i < 4; i++ {
		rec := observeScore(selector, "s1", 95)
		assert.False(t, rec.Changed)
	}
	rec := observeScore(selector, "s1", 95)

	require.True(t, rec.Changed)
	assert.Equal(t, domain.TierHigh, rec.Profile.Tier)
	require.Len(t, rec.Optimizations, 1)
	assert.Contains(t, rec.Optimizations[0], "raised profile to high")

	// Already at the top tier: further excellence changes nothing.
	*clock = clock.Add(time.Minute)
	for i := 0; i < 6; i++ {
		rec = observeScore(selector, "s1", 95)
		assert.False(t, rec.Changed)
	}
}

func TestSelectorWarnsAtLowestTier(t *testing.T) {
	selector, clock := newTestSelector(t)

	for i := 0; i < 3; i++ {
		observeScore(selector, "s1", 10)
	}
	*clock = clock.Add(31 * time.Second)
	for i := 0; i < 3; i++ {
		observeScore(selector, "s1", 10)
	}
	assert.Equal(t, domain.TierAudioOnly, selector.CurrentProfile("s1").Tier)

	*clock = clock.Add(31 * time.Second)
	observeScore(selector, "s1", 10)
	observeScore(selector, "s1", 10)
	rec := observeScore(selector, "s1", 10)

	assert.False(t, rec.Changed)
	require.NotEmpty(t, rec.Warnings)
	assert.Contains(t, rec.Warnings[0], "manual intervention suggested")
}

func TestSelectorWarnsOnStarvedBandwidth(t *testing.T) {
	selector, _ := newTestSelector(t)

	rec := selector.Observe(context.Background(), &domain.MetricSample{
		SessionID:       "s1",
		ParticipantID:   "p1",
		QualityScore:    70,
		ConnectionState: domain.StateConnected,
		Network: &domain.NetworkStats{
			AvailableIncomingBitrate: 32,
		},
	})

	require.NotEmpty(t, rec.Warnings)
	assert.Contains(t, rec.Warnings[0], "below the lowest profile")
}

func TestSelectorEndSessionResetsState(t *testing.T) {
	selector, _ := newTestSelector(t)

	for i := 0; i < 3; i++ {
		observeScore(selector, "s1", 20)
	}
	assert.Equal(t, domain.TierLow, selector.CurrentProfile("s1").Tier)

	selector.EndSession("s1")

	assert.Equal(t, domain.TierMedium, selector.CurrentProfile("s1").Tier)
}
