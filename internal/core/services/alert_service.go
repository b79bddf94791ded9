package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"
	"telequal/pkg/utils"

	"go.uber.org/zap"
)

const conditionOverall = "overall"
const conditionConnectionLost = "connection_lost"

// AlertDispatcherConfig controls severity bands, the per-condition
// cooldown and the dispatch queue.
type AlertDispatcherConfig struct {
	CriticalBelow int
	WarningBelow  int
	Cooldown      time.Duration
	QueueDepth    int
	NotifyTimeout time.Duration
}

func DefaultAlertDispatcherConfig() AlertDispatcherConfig {
	return AlertDispatcherConfig{
		CriticalBelow: 30,
		WarningBelow:  50,
		Cooldown:      60 * time.Second,
		QueueDepth:    256,
		NotifyTimeout: 5 * time.Second,
	}
}

// AlertDispatcher watches scored samples and emits at most one
// notification per (session, condition) per cooldown window. Delivery
// runs on a separate worker fed by a bounded queue so a slow channel
// never throttles ingestion; when the queue is full the oldest pending
// notification is dropped with a logged warning.
type AlertDispatcher struct {
	config   AlertDispatcherConfig
	notifier ports.NotificationService
	records  ports.AlertRepository
	metrics  ports.MetricsSink
	logger   *zap.SugaredLogger

	// Serializes the cooldown check-and-set per process. Scoped to
	// alert state only; sample ingestion holds no lock here.
	mu sync.Mutex

	queue chan *domain.Notification
	stop  chan struct{}
	wg    sync.WaitGroup

	now func() time.Time
}

func NewAlertDispatcher(
	config AlertDispatcherConfig,
	notifier ports.NotificationService,
	records ports.AlertRepository,
	logger *zap.SugaredLogger,
) *AlertDispatcher {
	d := &AlertDispatcher{
		config:   config,
		notifier: notifier,
		records:  records,
		logger:   logger,
		queue:    make(chan *domain.Notification, config.QueueDepth),
		stop:     make(chan struct{}),
		now:      time.Now,
	}

	d.wg.Add(1)
	go d.deliver()

	return d
}

// AttachMetrics wires the observability sink.
func (d *AlertDispatcher) AttachMetrics(metrics ports.MetricsSink) {
	d.metrics = metrics
}

// Evaluate classifies one scored sample. Never returns an error: alert
// and notification failures are logged, ingestion must not depend on
// them.
func (d *AlertDispatcher) Evaluate(ctx context.Context, sample *domain.MetricSample) {
	severity, ok := d.severityFor(sample.QualityScore)
	if ok {
		d.raise(ctx, sample, conditionOverall, severity)
	} else {
		d.clear(ctx, sample.SessionID, conditionOverall)
	}

	switch sample.ConnectionState {
	case domain.StateFailed:
		d.raise(ctx, sample, conditionConnectionLost, domain.SeverityCritical)
	case domain.StateDisconnected:
		d.raise(ctx, sample, conditionConnectionLost, domain.SeverityWarning)
	case domain.StateConnected:
		d.clear(ctx, sample.SessionID, conditionConnectionLost)
	}
}

func (d *AlertDispatcher) severityFor(score int) (domain.AlertSeverity, bool) {
	switch {
	case score < d.config.CriticalBelow:
		return domain.SeverityCritical, true
	case score < d.config.WarningBelow:
		return domain.SeverityWarning, true
	default:
		return "", false
	}
}

// raise performs the atomic cooldown check-and-set and enqueues a
// notification when the condition is not suppressed.
func (d *AlertDispatcher) raise(ctx context.Context, sample *domain.MetricSample, conditionKey string, severity domain.AlertSeverity) {
	now := d.now()

	d.mu.Lock()
	record, err := d.records.Get(ctx, sample.SessionID, conditionKey)
	if err != nil {
		d.mu.Unlock()
		d.logger.Warnw("alert record lookup failed",
			"session_id", sample.SessionID,
			"condition", conditionKey,
			"error", err,
		)
		return
	}

	if record != nil && now.Before(record.SuppressedUntil) {
		d.mu.Unlock()
		return
	}

	if record == nil {
		record = &domain.AlertRecord{
			ID:            utils.GenerateID(),
			SessionID:     sample.SessionID,
			ConditionKey:  conditionKey,
			FirstRaisedAt: now,
		}
	}
	record.Severity = severity
	record.Score = sample.QualityScore
	record.Issues = sample.Issues
	record.LastRaisedAt = now
	record.SuppressedUntil = now.Add(d.config.Cooldown)

	if err := d.records.Put(ctx, record); err != nil {
		d.mu.Unlock()
		d.logger.Warnw("alert record update failed",
			"session_id", sample.SessionID,
			"condition", conditionKey,
			"error", err,
		)
		return
	}
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.RecordAlert(severity)
	}

	d.enqueue(&domain.Notification{
		TargetParticipant: sample.ParticipantID,
		Title:             alertTitle(severity),
		Message: fmt.Sprintf("session %s quality degraded (score %d, condition %s)",
			sample.SessionID, sample.QualityScore, conditionKey),
		Priority:  string(severity),
		SessionID: sample.SessionID,
		Score:     sample.QualityScore,
		Issues:    sample.Issues,
	})
}

func alertTitle(severity domain.AlertSeverity) string {
	if severity == domain.SeverityCritical {
		return "Critical consultation quality"
	}
	return "Degraded consultation quality"
}

// clear removes the alert record so the condition can re-alert when it
// recurs after recovery.
func (d *AlertDispatcher) clear(ctx context.Context, sessionID domain.SessionID, conditionKey string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.records.Delete(ctx, sessionID, conditionKey); err != nil {
		d.logger.Debugw("alert record clear failed",
			"session_id", sessionID,
			"condition", conditionKey,
			"error", err,
		)
	}
}

// enqueue never blocks: when the queue is full the oldest pending
// notification is dropped and a warning is logged.
func (d *AlertDispatcher) enqueue(n *domain.Notification) {
	select {
	case d.queue <- n:
		return
	default:
	}

	select {
	case dropped := <-d.queue:
		d.logger.Warnw("alert queue full, dropping oldest notification",
			"dropped_session_id", dropped.SessionID,
			"queue_depth", cap(d.queue),
		)
		if d.metrics != nil {
			d.metrics.RecordAlertDropped()
		}
	default:
	}

	select {
	case d.queue <- n:
	default:
		d.logger.Warnw("alert queue full, dropping notification",
			"session_id", n.SessionID,
		)
		if d.metrics != nil {
			d.metrics.RecordAlertDropped()
		}
	}
}

// deliver consumes the queue and invokes the notification channel.
// Delivery is fire-and-forget: failures are logged, never retried.
func (d *AlertDispatcher) deliver() {
	defer d.wg.Done()

	for {
		select {
		case n := <-d.queue:
			d.send(n)
		case <-d.stop:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case n := <-d.queue:
					d.send(n)
				default:
					return
				}
			}
		}
	}
}

func (d *AlertDispatcher) send(n *domain.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.NotifyTimeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, n); err != nil {
		d.logger.Warnw("notification delivery failed",
			"session_id", n.SessionID,
			"target", n.TargetParticipant,
			"error", err,
		)
	}
}

// QueueDepth reports the number of notifications waiting for delivery.
func (d *AlertDispatcher) QueueDepth() int {
	return len(d.queue)
}

// Close stops the delivery worker after draining the queue.
func (d *AlertDispatcher) Close() {
	close(d.stop)
	d.wg.Wait()
}
