package domain

import "fmt"

// QualityThresholds are the process-wide limits the scorer and alert
// dispatcher evaluate samples against. The struct is treated as an
// immutable snapshot: updates publish a whole new value, fields are
// never mutated in place.
type QualityThresholds struct {
	VideoMaxPacketLossPercent float64 `json:"video_max_packet_loss_percent" yaml:"video_max_packet_loss_percent"`
	VideoMinFrameRate         float64 `json:"video_min_frame_rate" yaml:"video_min_frame_rate"`
	VideoMaxJitterMs          float64 `json:"video_max_jitter_ms" yaml:"video_max_jitter_ms"`

	AudioMaxPacketLossPercent float64 `json:"audio_max_packet_loss_percent" yaml:"audio_max_packet_loss_percent"`
	AudioMaxJitterMs          float64 `json:"audio_max_jitter_ms" yaml:"audio_max_jitter_ms"`
	AudioMinLevel             float64 `json:"audio_min_level" yaml:"audio_min_level"`

	MaxRoundTripTimeMs float64 `json:"max_round_trip_time_ms" yaml:"max_round_trip_time_ms"`
	MinBandwidthKbps   int     `json:"min_bandwidth_kbps" yaml:"min_bandwidth_kbps"`
}

// Validate rejects threshold sets that would make the scorer
// nonsensical.
func (t QualityThresholds) Validate() error {
	if t.VideoMaxPacketLossPercent < 0 || t.VideoMaxPacketLossPercent > 100 {
		return fmt.Errorf("video_max_packet_loss_percent must be within [0, 100]")
	}
	if t.AudioMaxPacketLossPercent < 0 || t.AudioMaxPacketLossPercent > 100 {
		return fmt.Errorf("audio_max_packet_loss_percent must be within [0, 100]")
	}
	if t.VideoMinFrameRate < 0 {
		return fmt.Errorf("video_min_frame_rate must be >= 0")
	}
	if t.VideoMaxJitterMs < 0 || t.AudioMaxJitterMs < 0 {
		return fmt.Errorf("jitter limits must be >= 0")
	}
	if t.AudioMinLevel < 0 || t.AudioMinLevel > 1 {
		return fmt.Errorf("audio_min_level must be within [0, 1]")
	}
	if t.MaxRoundTripTimeMs <= 0 {
		return fmt.Errorf("max_round_trip_time_ms must be > 0")
	}
	if t.MinBandwidthKbps < 0 {
		return fmt.Errorf("min_bandwidth_kbps must be >= 0")
	}
	return nil
}

// DefaultQualityThresholds returns the limits used when no configuration
// is supplied.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		VideoMaxPacketLossPercent: 5.0,
		VideoMinFrameRate:         15,
		VideoMaxJitterMs:          100,
		AudioMaxPacketLossPercent: 2.0,
		AudioMaxJitterMs:          50,
		AudioMinLevel:             0.01,
		MaxRoundTripTimeMs:        300,
		MinBandwidthKbps:          350,
	}
}
