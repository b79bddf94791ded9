package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telequal/internal/core/domain"

	"github.com/gorilla/websocket"
)

// clientMessage mirrors the envelope the engine's websocket source
// expects.
type clientMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

func main() {
	var (
		addr          = flag.String("addr", "localhost:8080", "engine address")
		path          = flag.String("path", "/ws/telemetry", "websocket path")
		sessionID     = flag.String("session", "demo-session-01", "session to report under")
		participantID = flag.String("participant", "demo-patient-01", "participant identity")
		role          = flag.String("role", "patient", "participant role (doctor or patient)")
		interval      = flag.Duration("interval", 5*time.Second, "sample interval")
		degraded      = flag.Bool("degraded", false, "simulate a degraded link")
	)
	flag.Parse()

	u := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     *path,
		RawQuery: fmt.Sprintf("participant_id=%s", *participantID),
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial %s: %v", u.String(), err)
	}
	defer conn.Close()

	log.Printf("feeding telemetry for %s in %s (degraded=%v)", *participantID, *sessionID, *degraded)

	if err := conn.WriteJSON(clientMessage{Type: "hello"}); err != nil {
		log.Fatalf("hello: %v", err)
	}

	// Keep the read side drained so ping frames are answered.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			conn.WriteJSON(clientMessage{Type: "bye"})
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			sample := buildSample(*sessionID, *participantID, *role, *degraded, rng)
			payload, _ := json.Marshal(sample)
			if err := conn.WriteJSON(clientMessage{Type: "sample", Payload: json.RawMessage(payload)}); err != nil {
				log.Fatalf("send sample: %v", err)
			}
		}
	}
}

func buildSample(sessionID, participantID, role string, degraded bool, rng *rand.Rand) *domain.MetricSample {
	lossPercent := rng.Float64() * 1.5
	jitter := 15 + rng.Float64()*20
	rtt := 60 + rng.Float64()*60
	fps := 24 + rng.Float64()*6

	if degraded {
		lossPercent = 6 + rng.Float64()*10
		jitter = 150 + rng.Float64()*200
		rtt = 400 + rng.Float64()*400
		fps = 5 + rng.Float64()*8
	}

	received := 900 + rng.Intn(200)
	lost := int(float64(received) * lossPercent / 100.0)

	return &domain.MetricSample{
		SessionID:       domain.SessionID(sessionID),
		ParticipantID:   domain.ParticipantID(participantID),
		Role:            domain.ParticipantRole(role),
		ConnectionState: domain.StateConnected,
		Video: &domain.VideoStats{
			PacketsReceived: received,
			PacketsLost:     lost,
			JitterMs:        jitter,
			FrameWidth:      640,
			FrameHeight:     480,
			FramesPerSecond: fps,
			BytesReceived:   int64(received) * 1100,
		},
		Audio: &domain.AudioStats{
			PacketsReceived: received / 2,
			PacketsLost:     lost / 4,
			JitterMs:        jitter / 2,
			AudioLevel:      0.2 + rng.Float64()*0.5,
			BytesReceived:   int64(received) * 80,
		},
		Network: &domain.NetworkStats{
			RoundTripTimeMs:          rtt,
			AvailableIncomingBitrate: 500 + rng.Intn(2500),
			AvailableOutgoingBitrate: 500 + rng.Intn(2500),
		},
	}
}
