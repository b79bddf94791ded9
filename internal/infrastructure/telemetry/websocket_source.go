package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// clientMessage is the wire envelope pushed by media clients. Only
// "sample" messages carry a payload today; "hello" and "bye" mark the
// feed lifecycle.
type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WebSocketSource accepts live telemetry feeds from media clients. Each
// client pushes one sample per observation window; samples go straight
// into the aggregator.
type WebSocketSource struct {
	aggregator ports.SessionService

	connections map[domain.ParticipantID]*websocket.Conn
	mu          sync.RWMutex

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

var _ ports.TelemetrySource = (*WebSocketSource)(nil)

func NewWebSocketSource(aggregator ports.SessionService, pingInterval, pongTimeout time.Duration, logger *zap.SugaredLogger) *WebSocketSource {
	return &WebSocketSource{
		aggregator:   aggregator,
		connections:  make(map[domain.ParticipantID]*websocket.Conn),
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

func (s *WebSocketSource) Name() string {
	return "websocket"
}

// Run blocks until the context is cancelled. The HTTP server owns the
// listener; connections are handled by HandleWebSocket as they arrive.
func (s *WebSocketSource) Run(ctx context.Context) error {
	<-ctx.Done()

	s.mu.Lock()
	for participantID, conn := range s.connections {
		conn.Close()
		delete(s.connections, participantID)
	}
	s.mu.Unlock()

	return ctx.Err()
}

func (s *WebSocketSource) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	participantID := domain.ParticipantID(r.URL.Query().Get("participant_id"))
	if participantID == "" {
		s.logger.Warn("missing participant_id in query parameters")
		return
	}

	// Check if the client is reconnecting (already has a feed open)
	s.mu.Lock()
	existingConn, isReconnect := s.connections[participantID]
	if isReconnect && existingConn != nil {
		existingConn.Close()
		s.logger.Infow("closing old feed for reconnecting participant", "participant_id", participantID)
	}
	s.connections[participantID] = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.connections[participantID] == conn {
			delete(s.connections, participantID)
		}
		s.mu.Unlock()
	}()

	s.logger.Infow("telemetry feed connected", "participant_id", participantID, "reconnect", isReconnect)

	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan clientMessage, 10)
	errorChan := make(chan error, 1)

	go func() {
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				errorChan <- err
				return
			}
			messageChan <- msg
		}
	}()

	for {
		select {
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debugw("ping failed", "participant_id", participantID, "error", err)
				return
			}
		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warnw("telemetry feed closed unexpectedly",
					"participant_id", participantID,
					"error", err,
				)
			}
			return
		case msg := <-messageChan:
			s.handleMessage(participantID, msg)
		}
	}
}

func (s *WebSocketSource) handleMessage(participantID domain.ParticipantID, msg clientMessage) {
	switch msg.Type {
	case "sample":
		var sample domain.MetricSample
		if err := json.Unmarshal(msg.Payload, &sample); err != nil {
			s.logger.Warnw("malformed sample payload",
				"participant_id", participantID,
				"error", err,
			)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.aggregator.Ingest(ctx, &sample); err != nil {
			s.logger.Warnw("sample rejected",
				"participant_id", participantID,
				"session_id", sample.SessionID,
				"error", err,
			)
		}
	case "hello", "bye":
		s.logger.Debugw("feed lifecycle message", "participant_id", participantID, "type", msg.Type)
	default:
		s.logger.Debugw("unknown message type", "participant_id", participantID, "type", msg.Type)
	}
}
