package services

import (
	"testing"

	"telequal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthySample() *domain.MetricSample {
	return &domain.MetricSample{
		SessionID:       "s1",
		ParticipantID:   "p1",
		Role:            domain.RolePatient,
		ConnectionState: domain.StateConnected,
		Video: &domain.VideoStats{
			PacketsReceived: 1000,
			PacketsLost:     0,
			JitterMs:        20,
			FramesPerSecond: 30,
		},
		Audio: &domain.AudioStats{
			PacketsReceived: 500,
			PacketsLost:     0,
			JitterMs:        10,
			AudioLevel:      0.4,
		},
		Network: &domain.NetworkStats{
			RoundTripTimeMs: 80,
		},
	}
}

func TestScoreHealthySampleIsPerfect(t *testing.T) {
	scorer := NewScoringService()

	score, issues := scorer.Score(healthySample(), domain.DefaultQualityThresholds())

	assert.Equal(t, 100, score)
	assert.Empty(t, issues)
}

func TestScoreVideoPacketLossAtThreshold(t *testing.T) {
	scorer := NewScoringService()

	// 50 lost of 1000 total is exactly 5.0%, which crosses the default
	// threshold and costs loss*2 = 10 points.
	sample := healthySample()
	sample.Video.PacketsReceived = 950
	sample.Video.PacketsLost = 50

	score, issues := scorer.Score(sample, domain.DefaultQualityThresholds())

	assert.Equal(t, 90, score)
	require.Len(t, issues, 1)
	assert.Equal(t, "high video packet loss: 5.0%", issues[0])
}

func TestScoreZeroPacketsIsNotLoss(t *testing.T) {
	scorer := NewScoringService()

	sample := healthySample()
	sample.Video.PacketsReceived = 0
	sample.Video.PacketsLost = 0

	score, issues := scorer.Score(sample, domain.DefaultQualityThresholds())

	assert.Equal(t, 100, score)
	assert.Empty(t, issues)
}

func TestScoreFailedConnection(t *testing.T) {
	scorer := NewScoringService()

	sample := &domain.MetricSample{
		SessionID:       "s1",
		ParticipantID:   "p1",
		Role:            domain.RoleDoctor,
		ConnectionState: domain.StateFailed,
	}

	score, issues := scorer.Score(sample, domain.DefaultQualityThresholds())

	assert.Equal(t, 50, score)
	require.Len(t, issues, 1)
	assert.Equal(t, "connection failed", issues[0])
}

func TestScoreConnectionStates(t *testing.T) {
	scorer := NewScoringService()
	thresholds := domain.DefaultQualityThresholds()

	cases := []struct {
		state domain.ConnectionState
		score int
	}{
		{domain.StateConnected, 100},
		{domain.StateConnecting, 90},
		{domain.StateDisconnected, 70},
		{domain.StateFailed, 50},
	}

	for _, tc := range cases {
		sample := &domain.MetricSample{
			SessionID:       "s1",
			ParticipantID:   "p1",
			ConnectionState: tc.state,
		}
		score, _ := scorer.Score(sample, thresholds)
		assert.Equal(t, tc.score, score, "state %s", tc.state)
	}
}

func TestScoreLowFrameRate(t *testing.T) {
	scorer := NewScoringService()

	sample := healthySample()
	sample.Video.FramesPerSecond = 10

	score, issues := scorer.Score(sample, domain.DefaultQualityThresholds())

	// (15 - 10) * 2 = 10 points.
	assert.Equal(t, 90, score)
	require.Len(t, issues, 1)
	assert.Equal(t, "low frame rate: 10.0 fps", issues[0])
}

func TestScoreJitterPenaltyIsCapped(t *testing.T) {
	scorer := NewScoringService()

	sample := healthySample()
	sample.Video.JitterMs = 100000

	score, issues := scorer.Score(sample, domain.DefaultQualityThresholds())

	// Penalty is capped at 15 no matter how extreme the jitter.
	assert.Equal(t, 85, score)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "high video jitter")
}

func TestScoreNeverBelowZero(t *testing.T) {
	scorer := NewScoringService()

	sample := &domain.MetricSample{
		SessionID:       "s1",
		ParticipantID:   "p1",
		ConnectionState: domain.StateFailed,
		Video: &domain.VideoStats{
			PacketsReceived: 100,
			PacketsLost:     100,
			JitterMs:        5000,
			FramesPerSecond: 1,
		},
		Audio: &domain.AudioStats{
			PacketsReceived: 100,
			PacketsLost:     100,
			JitterMs:        5000,
			AudioLevel:      0,
		},
		Network: &domain.NetworkStats{
			RoundTripTimeMs: 10000,
		},
	}

	score, issues := scorer.Score(sample, domain.DefaultQualityThresholds())

	assert.Equal(t, 0, score)
	assert.NotEmpty(t, issues)
}

func TestScoreIsDeterministic(t *testing.T) {
	scorer := NewScoringService()
	thresholds := domain.DefaultQualityThresholds()

	sample := healthySample()
	sample.Video.PacketsLost = 80
	sample.Network.RoundTripTimeMs = 450

	score1, issues1 := scorer.Score(sample, thresholds)
	score2, issues2 := scorer.Score(sample, thresholds)

	assert.Equal(t, score1, score2)
	assert.Equal(t, issues1, issues2)
}

func TestScoreAudioPenalties(t *testing.T) {
	scorer := NewScoringService()

	sample := healthySample()
	sample.Audio.PacketsReceived = 475
	sample.Audio.PacketsLost = 25 // 5% loss, penalty min(15, 15) = 15
	sample.Audio.AudioLevel = 0.001

	score, issues := scorer.Score(sample, domain.DefaultQualityThresholds())

	assert.Equal(t, 75, score)
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0], "high audio packet loss")
	assert.Contains(t, issues[1], "low audio level")
}
