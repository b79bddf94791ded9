package telemetry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"

	"go.uber.org/zap"
)

// simulatedParticipant tracks the drifting link conditions of one
// synthetic consultation participant.
type simulatedParticipant struct {
	id    domain.ParticipantID
	role  domain.ParticipantRole
	state domain.ConnectionState

	lossPercent float64
	jitterMs    float64
	rttMs       float64
	fps         float64
}

type simulatedRoom struct {
	sessionID    domain.SessionID
	participants []*simulatedParticipant
}

// SimulatedSource generates synthetic consultation traffic for load
// and demo runs. Each room holds a doctor and a patient whose network
// conditions drift via a bounded random walk, with occasional
// disconnect and recovery episodes.
type SimulatedSource struct {
	aggregator ports.SessionService
	interval   time.Duration
	rooms      []*simulatedRoom
	rng        *rand.Rand
	logger     *zap.SugaredLogger
}

var _ ports.TelemetrySource = (*SimulatedSource)(nil)

func NewSimulatedSource(aggregator ports.SessionService, roomCount int, interval time.Duration, logger *zap.SugaredLogger) *SimulatedSource {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	rooms := make([]*simulatedRoom, 0, roomCount)
	for i := 0; i < roomCount; i++ {
		sessionID := domain.SessionID(fmt.Sprintf("sim-session-%02d", i+1))
		rooms = append(rooms, &simulatedRoom{
			sessionID: sessionID,
			participants: []*simulatedParticipant{
				newSimulatedParticipant(fmt.Sprintf("sim-doctor-%02d", i+1), domain.RoleDoctor),
				newSimulatedParticipant(fmt.Sprintf("sim-patient-%02d", i+1), domain.RolePatient),
			},
		})
	}

	return &SimulatedSource{
		aggregator: aggregator,
		interval:   interval,
		rooms:      rooms,
		rng:        rng,
		logger:     logger,
	}
}

func newSimulatedParticipant(id string, role domain.ParticipantRole) *simulatedParticipant {
	return &simulatedParticipant{
		id:          domain.ParticipantID(id),
		role:        role,
		state:       domain.StateConnected,
		lossPercent: 0.5,
		jitterMs:    20,
		rttMs:       80,
		fps:         26,
	}
}

func (s *SimulatedSource) Name() string {
	return "simulated"
}

// Run emits one sample per participant per tick until cancelled.
func (s *SimulatedSource) Run(ctx context.Context) error {
	s.logger.Infow("simulated telemetry started",
		"rooms", len(s.rooms),
		"interval", s.interval,
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SimulatedSource) tick(ctx context.Context) {
	for _, room := range s.rooms {
		for _, p := range room.participants {
			s.drift(p)

			sample := s.buildSample(room.sessionID, p)
			if err := s.aggregator.Ingest(ctx, sample); err != nil {
				s.logger.Warnw("simulated sample rejected",
					"session_id", room.sessionID,
					"participant_id", p.id,
					"error", err,
				)
			}
		}
	}
}

// drift applies a bounded random walk to the participant's link
// conditions and occasionally flips the connection state.
func (s *SimulatedSource) drift(p *simulatedParticipant) {
	switch p.state {
	case domain.StateConnected:
		// Small chance of losing the link on any tick.
		if s.rng.Float64() < 0.02 {
			p.state = domain.StateDisconnected
			return
		}
	case domain.StateDisconnected:
		// Recovery passes through connecting.
		if s.rng.Float64() < 0.5 {
			p.state = domain.StateConnecting
		}
		return
	case domain.StateConnecting:
		p.state = domain.StateConnected
	}

	p.lossPercent = clampFloat(p.lossPercent+s.rng.Float64()*2-1, 0, 30)
	p.jitterMs = clampFloat(p.jitterMs+s.rng.Float64()*20-10, 0, 400)
	p.rttMs = clampFloat(p.rttMs+s.rng.Float64()*40-20, 10, 1200)
	p.fps = clampFloat(p.fps+s.rng.Float64()*4-2, 2, 30)
}

func (s *SimulatedSource) buildSample(sessionID domain.SessionID, p *simulatedParticipant) *domain.MetricSample {
	sample := &domain.MetricSample{
		SessionID:       sessionID,
		ParticipantID:   p.id,
		Role:            p.role,
		ConnectionState: p.state,
	}

	if p.state != domain.StateConnected {
		return sample
	}

	received := 900 + s.rng.Intn(200)
	lost := int(float64(received) * p.lossPercent / 100.0)

	sample.Video = &domain.VideoStats{
		PacketsReceived: received,
		PacketsLost:     lost,
		JitterMs:        p.jitterMs,
		FrameWidth:      640,
		FrameHeight:     480,
		FramesPerSecond: p.fps,
		BytesReceived:   int64(received) * 1100,
	}
	sample.Audio = &domain.AudioStats{
		PacketsReceived: received / 2,
		PacketsLost:     lost / 4,
		JitterMs:        p.jitterMs / 2,
		AudioLevel:      0.2 + s.rng.Float64()*0.5,
		BytesReceived:   int64(received) * 80,
	}
	sample.Network = &domain.NetworkStats{
		RoundTripTimeMs:          p.rttMs,
		AvailableIncomingBitrate: 500 + s.rng.Intn(2500),
		AvailableOutgoingBitrate: 500 + s.rng.Intn(2500),
	}

	return sample
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
