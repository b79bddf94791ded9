package reliability

import (
	"context"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"
	"telequal/pkg/circuitbreaker"

	"go.uber.org/zap"
)

// NotifierBreaker wraps a notification channel with a circuit breaker.
// When the channel keeps failing the breaker opens and notifications
// fail fast instead of tying up the dispatch worker on timeouts.
type NotifierBreaker struct {
	channel ports.NotificationService
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

var _ ports.NotificationService = (*NotifierBreaker)(nil)

func NewNotifierBreaker(
	channel ports.NotificationService,
	cbConfig circuitbreaker.Config,
	logger *zap.SugaredLogger,
) *NotifierBreaker {
	wrapper := &NotifierBreaker{
		channel: channel,
		breaker: circuitbreaker.New(cbConfig),
		logger:  logger,
	}

	wrapper.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Infow("notifier circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})

	return wrapper
}

func (w *NotifierBreaker) Notify(ctx context.Context, notification *domain.Notification) error {
	return w.breaker.Execute(ctx, func() error {
		return w.channel.Notify(ctx, notification)
	})
}

// Stats exposes breaker counters for the health endpoint.
func (w *NotifierBreaker) Stats() circuitbreaker.Stats {
	return w.breaker.GetStats()
}
