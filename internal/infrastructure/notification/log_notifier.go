package notification

import (
	"context"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log. It is the
// default channel for single-instance deployments and demo runs.
type LogNotifier struct {
	logger *zap.SugaredLogger
}

var _ ports.NotificationService = (*LogNotifier)(nil)

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	n.logger.Warnw("quality alert",
		"session_id", notification.SessionID,
		"target", notification.TargetParticipant,
		"priority", notification.Priority,
		"title", notification.Title,
		"message", notification.Message,
		"score", notification.Score,
		"issues", notification.Issues,
	)
	return nil
}
