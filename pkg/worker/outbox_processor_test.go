package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/pkg/metrics"
)

type fakeOutboxRepo struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    map[uuid.UUID]string
	listErr   error
}

func (f *fakeOutboxRepo) ListPending(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pending, nil
}

func (f *fakeOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	if f.failed == nil {
		f.failed = make(map[uuid.UUID]string)
	}
	f.failed[id] = reason
	return nil
}

type fakeBroker struct {
	published []string
	err       error
}

func (f *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, channel)
	return nil
}

func (f *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, nil
}

func (f *fakeBroker) Close() error { return nil }

// promauto registers into the default registry, so the test metrics are
// created once for the whole package.
var testMetrics = metrics.NewMetrics("clinicops_test", "worker")

func newTestProcessor(repo *fakeOutboxRepo, broker *fakeBroker) *OutboxProcessor {
	cfg := OutboxProcessorConfig{BatchSize: 10, RetryAttempts: 1}
	return NewOutboxProcessor(repo, broker, cfg, zerolog.Nop(), testMetrics)
}

func TestProcessBatchPublishesAndMarksProcessed(t *testing.T) {
	event := model.NewOutboxEvent("appointment.checked_in", map[string]string{"id": "x"})
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{event}}
	broker := &fakeBroker{}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processBatch(context.Background()))

	assert.Equal(t, []string{"appointment.checked_in"}, broker.published)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.processed)
}

func TestProcessBatchTimesTheListQuery(t *testing.T) {
	repo := &fakeOutboxRepo{}
	p := newTestProcessor(repo, &fakeBroker{})

	require.NoError(t, p.processBatch(context.Background()))

	// The list_pending series exists once the query has been timed.
	assert.Equal(t, 1, testutil.CollectAndCount(testMetrics.DatabaseLatency))
}

func TestProcessBatchMarksFailedAfterExhaustedRetries(t *testing.T) {
	event := model.NewOutboxEvent("surgical_case.scheduled", map[string]string{"id": "y"})
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{event}}
	broker := &fakeBroker{err: errors.New("broker down")}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processBatch(context.Background()))

	assert.Empty(t, repo.processed)
	assert.Contains(t, repo.failed[event.ID], "broker down")
}
