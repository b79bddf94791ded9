package validation

import (
	"fmt"
	"regexp"
	"strings"

	"telequal/internal/core/domain"
)

var (
	// SessionIDRegex validates session ID format
	SessionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// ParticipantIDRegex validates participant ID format
	ParticipantIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateSessionID validates a session identifier.
func ValidateSessionID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("session ID is required")
	}
	if len(id) > 128 {
		return fmt.Errorf("session ID is too long (max 128 characters)")
	}
	if !SessionIDRegex.MatchString(id) {
		return fmt.Errorf("session ID contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidateParticipantID validates a participant identifier.
func ValidateParticipantID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("participant ID is required")
	}
	if len(id) > 128 {
		return fmt.Errorf("participant ID is too long (max 128 characters)")
	}
	if !ParticipantIDRegex.MatchString(id) {
		return fmt.Errorf("participant ID contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidateSample rejects malformed metric samples at the ingestion
// boundary: missing identifiers, unknown states, negative counters.
func ValidateSample(sample *domain.MetricSample) error {
	if sample == nil {
		return fmt.Errorf("sample is nil")
	}
	if err := ValidateSessionID(string(sample.SessionID)); err != nil {
		return err
	}
	if err := ValidateParticipantID(string(sample.ParticipantID)); err != nil {
		return err
	}
	if sample.Role != domain.RoleDoctor && sample.Role != domain.RolePatient {
		return fmt.Errorf("unknown participant role: %q", sample.Role)
	}
	if !sample.ConnectionState.Valid() {
		return fmt.Errorf("unknown connection state: %q", sample.ConnectionState)
	}

	if v := sample.Video; v != nil {
		if v.PacketsReceived < 0 || v.PacketsLost < 0 {
			return fmt.Errorf("video packet counters must not be negative")
		}
		if v.JitterMs < 0 {
			return fmt.Errorf("video jitter must not be negative")
		}
		if v.FramesPerSecond < 0 {
			return fmt.Errorf("frame rate must not be negative")
		}
		if v.FrameWidth < 0 || v.FrameHeight < 0 {
			return fmt.Errorf("frame dimensions must not be negative")
		}
	}
	if a := sample.Audio; a != nil {
		if a.PacketsReceived < 0 || a.PacketsLost < 0 {
			return fmt.Errorf("audio packet counters must not be negative")
		}
		if a.JitterMs < 0 {
			return fmt.Errorf("audio jitter must not be negative")
		}
		if a.AudioLevel < 0 || a.AudioLevel > 1 {
			return fmt.Errorf("audio level must be within [0, 1]")
		}
	}
	if n := sample.Network; n != nil {
		if n.RoundTripTimeMs < 0 {
			return fmt.Errorf("round-trip time must not be negative")
		}
		if n.AvailableIncomingBitrate < 0 || n.AvailableOutgoingBitrate < 0 {
			return fmt.Errorf("available bitrate must not be negative")
		}
	}

	return nil
}
