package services

import (
	"fmt"
	"math"

	"telequal/internal/core/domain"
)

// ScoringService derives a quality score from raw sample fields using an
// additive penalty model. Scoring is pure and deterministic: the same
// sample and thresholds always produce the same score and issue list.
type ScoringService struct{}

func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// Score starts at 100 and subtracts penalties for the connection state,
// then video, audio and network degradations, in that order. The result
// is clamped to [0, 100] and rounded to the nearest integer. Issue tags
// are appended in evaluation order.
func (s *ScoringService) Score(sample *domain.MetricSample, thresholds domain.QualityThresholds) (int, []string) {
	score := 100.0
	var issues []string

	switch sample.ConnectionState {
	case domain.StateFailed:
		score -= 50
		issues = append(issues, "connection failed")
	case domain.StateDisconnected:
		score -= 30
		issues = append(issues, "connection lost")
	case domain.StateConnecting:
		score -= 10
		issues = append(issues, "connection not yet established")
	}

	if v := sample.Video; v != nil {
		lossPct := domain.PacketLossPercent(v.PacketsReceived, v.PacketsLost)
		if lossPct > 0 && lossPct >= thresholds.VideoMaxPacketLossPercent {
			score -= math.Min(20, lossPct*2)
			issues = append(issues, fmt.Sprintf("high video packet loss: %.1f%%", lossPct))
		}
		if v.FramesPerSecond < thresholds.VideoMinFrameRate {
			score -= (thresholds.VideoMinFrameRate - v.FramesPerSecond) * 2
			issues = append(issues, fmt.Sprintf("low frame rate: %.1f fps", v.FramesPerSecond))
		}
		if v.JitterMs > thresholds.VideoMaxJitterMs {
			score -= math.Min(15, (v.JitterMs-thresholds.VideoMaxJitterMs)/10)
			issues = append(issues, fmt.Sprintf("high video jitter: %.0f ms", v.JitterMs))
		}
	}

	if a := sample.Audio; a != nil {
		lossPct := domain.PacketLossPercent(a.PacketsReceived, a.PacketsLost)
		if lossPct > 0 && lossPct >= thresholds.AudioMaxPacketLossPercent {
			score -= math.Min(15, lossPct*3)
			issues = append(issues, fmt.Sprintf("high audio packet loss: %.1f%%", lossPct))
		}
		if a.JitterMs > thresholds.AudioMaxJitterMs {
			score -= math.Min(10, (a.JitterMs-thresholds.AudioMaxJitterMs)/5)
			issues = append(issues, fmt.Sprintf("high audio jitter: %.0f ms", a.JitterMs))
		}
		if a.AudioLevel < thresholds.AudioMinLevel {
			score -= 10
			issues = append(issues, fmt.Sprintf("low audio level: %.3f", a.AudioLevel))
		}
	}

	if n := sample.Network; n != nil {
		if n.RoundTripTimeMs > thresholds.MaxRoundTripTimeMs {
			score -= math.Min(15, (n.RoundTripTimeMs-thresholds.MaxRoundTripTimeMs)/10)
			issues = append(issues, fmt.Sprintf("high round-trip time: %.0f ms", n.RoundTripTimeMs))
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return int(math.Round(score)), issues
}
