package domain

// ProfileTier orders adaptive profiles from most to least constrained.
type ProfileTier int

const (
	TierAudioOnly ProfileTier = iota
	TierLow
	TierMedium
	TierHigh
)

func (t ProfileTier) String() string {
	switch t {
	case TierAudioOnly:
		return "audio-only"
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseProfileTier maps a configuration string to a tier.
func ParseProfileTier(s string) (ProfileTier, bool) {
	switch s {
	case "audio-only":
		return TierAudioOnly, true
	case "low":
		return TierLow, true
	case "medium":
		return TierMedium, true
	case "high":
		return TierHigh, true
	}
	return TierMedium, false
}

// AdaptiveProfile is one tier of encoding parameters the selector can
// recommend to the media layer.
type AdaptiveProfile struct {
	Tier        ProfileTier `json:"tier"`
	Name        string      `json:"name"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	FrameRate   int         `json:"frame_rate"`
	BitrateKbps int         `json:"bitrate_kbps"`
	Codec       string      `json:"codec"`
}

// DefaultProfileLadder returns the ordered profile set, lowest tier first.
func DefaultProfileLadder() []AdaptiveProfile {
	return []AdaptiveProfile{
		{Tier: TierAudioOnly, Name: "audio-only", Width: 0, Height: 0, FrameRate: 0, BitrateKbps: 64, Codec: "opus"},
		{Tier: TierLow, Name: "low", Width: 320, Height: 240, FrameRate: 15, BitrateKbps: 400, Codec: "vp8"},
		{Tier: TierMedium, Name: "medium", Width: 640, Height: 480, FrameRate: 24, BitrateKbps: 1000, Codec: "vp8"},
		{Tier: TierHigh, Name: "high", Width: 1280, Height: 720, FrameRate: 30, BitrateKbps: 2500, Codec: "vp9"},
	}
}

// ProfileRecommendation is the selector's output for one evaluation.
type ProfileRecommendation struct {
	SessionID     SessionID       `json:"session_id"`
	Profile       AdaptiveProfile `json:"profile"`
	Changed       bool            `json:"changed"`
	Optimizations []string        `json:"optimizations"`
	Warnings      []string        `json:"warnings"`
}
