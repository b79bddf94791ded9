package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"

	"go.uber.org/zap"
)

// Condition buckets used to classify the latest sample.
type conditionClass int

const (
	conditionPoor conditionClass = iota
	conditionGood
	conditionExcellent
)

func classifyScore(score int) conditionClass {
	switch {
	case score >= 80:
		return conditionExcellent
	case score >= 50:
		return conditionGood
	default:
		return conditionPoor
	}
}

// ProfileSelectorConfig controls the hysteresis windows and switch
// cooldown. Defaults: 3 consecutive poor samples to downgrade, 5
// consecutive excellent samples to upgrade, 30s between switches.
type ProfileSelectorConfig struct {
	ConsecutivePoorToDowngrade int
	ConsecutiveGoodToUpgrade   int
	SwitchCooldown             time.Duration
	InitialTier                domain.ProfileTier
}

func DefaultProfileSelectorConfig() ProfileSelectorConfig {
	return ProfileSelectorConfig{
		ConsecutivePoorToDowngrade: 3,
		ConsecutiveGoodToUpgrade:   5,
		SwitchCooldown:             30 * time.Second,
		InitialTier:                domain.TierMedium,
	}
}

type sessionProfileState struct {
	tierIndex       int
	poorStreak      int
	excellentStreak int
	lastSwitch      time.Time
}

// ProfileSelector picks the best-fit encoding profile per session from
// an ordered ladder. A single bad sample never changes the tier: the
// selector requires sustained degradation before downgrading and
// sustained headroom before upgrading, and never switches twice within
// the cooldown window.
type ProfileSelector struct {
	config  ProfileSelectorConfig
	ladder  []domain.AdaptiveProfile
	metrics ports.MetricsSink
	logger  *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[domain.SessionID]*sessionProfileState

	now func() time.Time
}

func NewProfileSelector(config ProfileSelectorConfig, logger *zap.SugaredLogger) *ProfileSelector {
	return &ProfileSelector{
		config:   config,
		ladder:   domain.DefaultProfileLadder(),
		logger:   logger,
		sessions: make(map[domain.SessionID]*sessionProfileState),
		now:      time.Now,
	}
}

// AttachMetrics wires the observability sink.
func (p *ProfileSelector) AttachMetrics(metrics ports.MetricsSink) {
	p.metrics = metrics
}

func (p *ProfileSelector) initialIndex() int {
	for i, prof := range p.ladder {
		if prof.Tier == p.config.InitialTier {
			return i
		}
	}
	return len(p.ladder) / 2
}

// Observe feeds one scored sample into the selector and returns the
// current recommendation, which may be unchanged.
func (p *ProfileSelector) Observe(ctx context.Context, sample *domain.MetricSample) *domain.ProfileRecommendation {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.sessions[sample.SessionID]
	if !ok {
		state = &sessionProfileState{tierIndex: p.initialIndex()}
		p.sessions[sample.SessionID] = state
	}

	switch classifyScore(sample.QualityScore) {
	case conditionPoor:
		state.poorStreak++
		state.excellentStreak = 0
	case conditionExcellent:
		state.excellentStreak++
		state.poorStreak = 0
	default:
		state.poorStreak = 0
		state.excellentStreak = 0
	}

	rec := &domain.ProfileRecommendation{
		SessionID: sample.SessionID,
		Profile:   p.ladder[state.tierIndex],
	}

	now := p.now()
	cooldownOver := state.lastSwitch.IsZero() || now.Sub(state.lastSwitch) >= p.config.SwitchCooldown

	switch {
	case state.poorStreak >= p.config.ConsecutivePoorToDowngrade && cooldownOver:
		if state.tierIndex > 0 {
			from := p.ladder[state.tierIndex]
			state.tierIndex--
			state.poorStreak = 0
			state.lastSwitch = now
			to := p.ladder[state.tierIndex]
			rec.Profile = to
			rec.Changed = true
			rec.Optimizations = downgradeOptimizations(from, to)
			p.logger.Infow("profile downgraded",
				"session_id", sample.SessionID,
				"from", from.Name,
				"to", to.Name,
				"score", sample.QualityScore,
			)
			if p.metrics != nil {
				p.metrics.RecordProfileSwitch(from.Tier, to.Tier)
			}
		} else {
			rec.Warnings = append(rec.Warnings,
				"bandwidth critically low, already at lowest profile: manual intervention suggested")
		}
	case state.excellentStreak >= p.config.ConsecutiveGoodToUpgrade && cooldownOver:
		if state.tierIndex < len(p.ladder)-1 {
			from := p.ladder[state.tierIndex]
			state.tierIndex++
			state.excellentStreak = 0
			state.lastSwitch = now
			to := p.ladder[state.tierIndex]
			rec.Profile = to
			rec.Changed = true
			rec.Optimizations = append(rec.Optimizations,
				fmt.Sprintf("raised profile to %s (%dx%d @ %d fps, %d kbps)",
					to.Name, to.Width, to.Height, to.FrameRate, to.BitrateKbps))
			p.logger.Infow("profile upgraded",
				"session_id", sample.SessionID,
				"from", from.Name,
				"to", to.Name,
				"score", sample.QualityScore,
			)
			if p.metrics != nil {
				p.metrics.RecordProfileSwitch(from.Tier, to.Tier)
			}
		}
	}

	if n := sample.Network; n != nil && n.AvailableIncomingBitrate > 0 &&
		n.AvailableIncomingBitrate < p.ladder[0].BitrateKbps {
		rec.Warnings = append(rec.Warnings,
			fmt.Sprintf("available bandwidth %d kbps is below the lowest profile: manual intervention suggested",
				n.AvailableIncomingBitrate))
	}

	return rec
}

func downgradeOptimizations(from, to domain.AdaptiveProfile) []string {
	if to.Tier == domain.TierAudioOnly {
		return []string{"switched to audio-only"}
	}
	return []string{
		fmt.Sprintf("reduced resolution to %dx%d", to.Width, to.Height),
		fmt.Sprintf("reduced frame rate to %d fps", to.FrameRate),
		fmt.Sprintf("reduced bitrate to %d kbps", to.BitrateKbps),
	}
}

// CurrentProfile returns the profile currently recommended for a session.
// Sessions without history get the initial tier.
func (p *ProfileSelector) CurrentProfile(sessionID domain.SessionID) domain.AdaptiveProfile {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state, ok := p.sessions[sessionID]; ok {
		return p.ladder[state.tierIndex]
	}
	return p.ladder[p.initialIndex()]
}

// EndSession drops selector state for a finished session.
func (p *ProfileSelector) EndSession(sessionID domain.SessionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, sessionID)
}
