package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"telequal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// captureNotifier records delivered notifications.
type captureNotifier struct {
	mu        sync.Mutex
	delivered []*domain.Notification
	block     chan struct{}
	started   chan struct{}
}

func (n *captureNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	if n.started != nil {
		n.started <- struct{}{}
	}
	if n.block != nil {
		<-n.block
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, notification)
	return nil
}

func (n *captureNotifier) sessions() []domain.SessionID {
	n.mu.Lock()
	defer n.mu.Unlock()
	var ids []domain.SessionID
	for _, d := range n.delivered {
		ids = append(ids, d.SessionID)
	}
	return ids
}

// fakeAlertStore is an in-memory alert record store.
type fakeAlertStore struct {
	mu      sync.Mutex
	records map[string]*domain.AlertRecord
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{records: make(map[string]*domain.AlertRecord)}
}

func (f *fakeAlertStore) key(sessionID domain.SessionID, conditionKey string) string {
	return string(sessionID) + "/" + conditionKey
}

func (f *fakeAlertStore) Get(ctx context.Context, sessionID domain.SessionID, conditionKey string) (*domain.AlertRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[f.key(sessionID, conditionKey)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeAlertStore) Put(ctx context.Context, record *domain.AlertRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	f.records[f.key(record.SessionID, record.ConditionKey)] = &copied
	return nil
}

func (f *fakeAlertStore) Delete(ctx context.Context, sessionID domain.SessionID, conditionKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, f.key(sessionID, conditionKey))
	return nil
}

func (f *fakeAlertStore) ListBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.AlertRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []*domain.AlertRecord
	for _, record := range f.records {
		if record.SessionID == sessionID {
			copied := *record
			records = append(records, &copied)
		}
	}
	return records, nil
}

func poorSample(sessionID domain.SessionID, score int) *domain.MetricSample {
	return &domain.MetricSample{
		SessionID:       sessionID,
		ParticipantID:   "p1",
		QualityScore:    score,
		ConnectionState: domain.StateConnected,
	}
}

func TestDispatcherSendsOneAlertPerCooldownWindow(t *testing.T) {
	notifier := &captureNotifier{}
	dispatcher := NewAlertDispatcher(DefaultAlertDispatcherConfig(), notifier, newFakeAlertStore(), zaptest.NewLogger(t).Sugar())

	current := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	dispatcher.now = func() time.Time { return current }

	ctx := context.Background()
	dispatcher.Evaluate(ctx, poorSample("s1", 20))
	current = current.Add(5 * time.Second)
	dispatcher.Evaluate(ctx, poorSample("s1", 15))
	current = current.Add(5 * time.Second)
	dispatcher.Evaluate(ctx, poorSample("s1", 18))

	dispatcher.Close()

	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, string(domain.SeverityCritical), notifier.delivered[0].Priority)
	assert.Equal(t, domain.SessionID("s1"), notifier.delivered[0].SessionID)
}

func TestDispatcherAlertsAgainAfterCooldown(t *testing.T) {
	notifier := &captureNotifier{}
	dispatcher := NewAlertDispatcher(DefaultAlertDispatcherConfig(), notifier, newFakeAlertStore(), zaptest.NewLogger(t).Sugar())

	current := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	dispatcher.now = func() time.Time { return current }

	ctx := context.Background()
	dispatcher.Evaluate(ctx, poorSample("s1", 20))
	current = current.Add(61 * time.Second)
	dispatcher.Evaluate(ctx, poorSample("s1", 20))

	dispatcher.Close()

	assert.Len(t, notifier.delivered, 2)
}

func TestDispatcherWarningBand(t *testing.T) {
	notifier := &captureNotifier{}
	dispatcher := NewAlertDispatcher(DefaultAlertDispatcherConfig(), notifier, newFakeAlertStore(), zaptest.NewLogger(t).Sugar())

	dispatcher.Evaluate(context.Background(), poorSample("s1", 45))

	dispatcher.Close()

	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, string(domain.SeverityWarning), notifier.delivered[0].Priority)
}

func TestDispatcherRecoveryClearsAndReAlerts(t *testing.T) {
	notifier := &captureNotifier{}
	store := newFakeAlertStore()
	dispatcher := NewAlertDispatcher(DefaultAlertDispatcherConfig(), notifier, store, zaptest.NewLogger(t).Sugar())

	current := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	dispatcher.now = func() time.Time { return current }

	ctx := context.Background()
	dispatcher.Evaluate(ctx, poorSample("s1", 20))

	// Recovery clears the record well inside the cooldown window.
	current = current.Add(10 * time.Second)
	dispatcher.Evaluate(ctx, poorSample("s1", 85))

	record, err := store.Get(ctx, "s1", "overall")
	require.NoError(t, err)
	assert.Nil(t, record)

	// Recurrence after recovery alerts again immediately.
	current = current.Add(10 * time.Second)
	dispatcher.Evaluate(ctx, poorSample("s1", 20))

	dispatcher.Close()

	assert.Len(t, notifier.delivered, 2)
}

func TestDispatcherConnectionLostCondition(t *testing.T) {
	notifier := &captureNotifier{}
	dispatcher := NewAlertDispatcher(DefaultAlertDispatcherConfig(), notifier, newFakeAlertStore(), zaptest.NewLogger(t).Sugar())

	sample := &domain.MetricSample{
		SessionID:       "s1",
		ParticipantID:   "p1",
		QualityScore:    70,
		ConnectionState: domain.StateDisconnected,
	}
	dispatcher.Evaluate(context.Background(), sample)

	dispatcher.Close()

	// Score 70 is above the warning band; only the connection condition
	// fires.
	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, string(domain.SeverityWarning), notifier.delivered[0].Priority)
	assert.Contains(t, notifier.delivered[0].Message, "connection_lost")
}

func TestDispatcherDropsOldestWhenQueueFull(t *testing.T) {
	notifier := &captureNotifier{
		block:   make(chan struct{}),
		started: make(chan struct{}, 3),
	}

	config := DefaultAlertDispatcherConfig()
	config.QueueDepth = 1
	dispatcher := NewAlertDispatcher(config, notifier, newFakeAlertStore(), zaptest.NewLogger(t).Sugar())

	ctx := context.Background()
	dispatcher.Evaluate(ctx, poorSample("a", 20))

	// Wait until the worker holds the first notification, then fill and
	// overflow the queue.
	<-notifier.started
	dispatcher.Evaluate(ctx, poorSample("b", 20))
	dispatcher.Evaluate(ctx, poorSample("c", 20))

	assert.Equal(t, 1, dispatcher.QueueDepth())

	close(notifier.block)
	dispatcher.Close()

	sessions := notifier.sessions()
	assert.Equal(t, []domain.SessionID{"a", "c"}, sessions)
}
