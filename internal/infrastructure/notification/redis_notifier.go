package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const alertChannel = "telequal:alerts"

// alertEvent is the wire envelope published to subscribers such as the
// clinic dashboard or an on-call bridge.
type alertEvent struct {
	InstanceID  string               `json:"instance_id"`
	PublishedAt time.Time            `json:"published_at"`
	Alert       *domain.Notification `json:"alert"`
}

// RedisNotifier publishes notifications on a Redis pub/sub channel so
// any number of downstream consumers can react without coupling to the
// engine process.
type RedisNotifier struct {
	client     *redis.Client
	instanceID string
	logger     *zap.SugaredLogger
}

var _ ports.NotificationService = (*RedisNotifier)(nil)

func NewRedisNotifier(client *redis.Client, instanceID string, logger *zap.SugaredLogger) *RedisNotifier {
	return &RedisNotifier{
		client:     client,
		instanceID: instanceID,
		logger:     logger,
	}
}

func (n *RedisNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	event := alertEvent{
		InstanceID:  n.instanceID,
		PublishedAt: time.Now(),
		Alert:       notification,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	if err := n.client.Publish(ctx, alertChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish alert event: %w", err)
	}

	n.logger.Debugw("published alert",
		"session_id", notification.SessionID,
		"priority", notification.Priority,
	)

	return nil
}

// Subscribe consumes alert events published by other instances and
// hands them to the handler. Blocks until the context is cancelled.
func Subscribe(ctx context.Context, client *redis.Client, instanceID string, logger *zap.SugaredLogger, handler func(*domain.Notification) error) error {
	pubsub := client.Subscribe(ctx, alertChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-ch:
			var event alertEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warnw("failed to unmarshal alert event",
					"error", err,
					"payload", msg.Payload,
				)
				continue
			}

			// Skip events published by this instance.
			if event.InstanceID == instanceID {
				continue
			}

			if err := handler(event.Alert); err != nil {
				logger.Warnw("error handling alert event",
					"session_id", event.Alert.SessionID,
					"error", err,
				)
			}
		}
	}
}
