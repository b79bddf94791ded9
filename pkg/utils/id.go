package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateID returns a random unique identifier for samples, reports
// and alert records.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateSessionID generates a unique session ID.
func GenerateSessionID() string {
	return fmt.Sprintf("session_%s", uuid.NewString())
}

// GenerateParticipantID generates a unique participant ID.
func GenerateParticipantID() string {
	return fmt.Sprintf("participant_%s", uuid.NewString())
}

// GenerateRequestID generates a unique request ID for log correlation.
func GenerateRequestID() string {
	timestamp := time.Now().UnixNano()
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("req_%d_%s", timestamp, hex.EncodeToString(b))
}
