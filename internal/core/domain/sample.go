package domain

import "time"

type SessionID string
type ParticipantID string

type ParticipantRole string

const (
	RoleDoctor  ParticipantRole = "doctor"
	RolePatient ParticipantRole = "patient"
)

type ConnectionState string

const (
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
	StateFailed       ConnectionState = "failed"
)

func (s ConnectionState) Valid() bool {
	switch s {
	case StateConnecting, StateConnected, StateDisconnected, StateFailed:
		return true
	}
	return false
}

// VideoStats holds per-interval inbound video statistics as reported
// by the media transport.
type VideoStats struct {
	PacketsReceived int     `json:"packets_received"`
	PacketsLost     int     `json:"packets_lost"`
	JitterMs        float64 `json:"jitter_ms"`
	FrameWidth      int     `json:"frame_width"`
	FrameHeight     int     `json:"frame_height"`
	FramesPerSecond float64 `json:"frames_per_second"`
	BytesReceived   int64   `json:"bytes_received"`
}

type AudioStats struct {
	PacketsReceived int     `json:"packets_received"`
	PacketsLost     int     `json:"packets_lost"`
	JitterMs        float64 `json:"jitter_ms"`
	AudioLevel      float64 `json:"audio_level"`
	BytesReceived   int64   `json:"bytes_received"`
}

type NetworkStats struct {
	RoundTripTimeMs          float64 `json:"round_trip_time_ms"`
	AvailableIncomingBitrate int     `json:"available_incoming_bitrate"`
	AvailableOutgoingBitrate int     `json:"available_outgoing_bitrate"`
}

// MetricSample is one observation window for one session participant.
// QualityScore and Issues are derived by the scorer; external callers
// must never set them directly. A sample is immutable after scoring.
type MetricSample struct {
	ID            string          `json:"id"`
	SessionID     SessionID       `json:"session_id"`
	ParticipantID ParticipantID   `json:"participant_id"`
	Role          ParticipantRole `json:"role"`
	CapturedAt    time.Time       `json:"captured_at"`

	ConnectionState ConnectionState `json:"connection_state"`

	Video   *VideoStats   `json:"video,omitempty"`
	Audio   *AudioStats   `json:"audio,omitempty"`
	Network *NetworkStats `json:"network,omitempty"`

	QualityScore int      `json:"quality_score"`
	Issues       []string `json:"issues,omitempty"`
}

// PacketLossPercent returns the loss percentage for a received/lost pair,
// guarding against a zero denominator.
func PacketLossPercent(received, lost int) float64 {
	total := received + lost
	if total == 0 {
		return 0
	}
	return float64(lost) / float64(total) * 100.0
}
