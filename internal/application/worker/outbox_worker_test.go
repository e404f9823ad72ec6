package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/infrastructure/memory"
	"github.com/sangkips/investify-pos/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu     sync.Mutex
	fail   error
	events []snowflake.ID
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *entity.IntegrationEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event.ID)
	return h.fail
}

func testWorker(store *memory.Store, handler EventHandler, clock *time.Time) *OutboxWorker {
	w := NewOutboxWorker(store, handler, OutboxConfig{
		BatchSize:   10,
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Lease:       time.Minute,
	}, retry.Policy{MaxAttempts: 1, Retryable: repository.IsTransient})
	w.now = func() time.Time { return *clock }
	return w
}

func enqueue(t *testing.T, store *memory.Store, node *snowflake.Node, at time.Time) snowflake.ID {
	t.Helper()
	event := &entity.IntegrationEvent{
		ID:            node.Generate(),
		TenantID:      uuid.New(),
		Type:          entity.EventSaleCompleted,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		Status:        enum.EventStatusPending,
		NextAttemptAt: at,
	}
	require.NoError(t, store.Repositories().Events.Create(context.Background(), event))
	return event.ID
}

func TestNextDelay(t *testing.T) {
	clock := time.Now()
	w := testWorker(memory.NewStore(), &recordingHandler{}, &clock)

	assert.Equal(t, time.Second, w.NextDelay(0))
	assert.Equal(t, 2*time.Second, w.NextDelay(1))
	assert.Equal(t, 8*time.Second, w.NextDelay(3))
	assert.Equal(t, 10*time.Second, w.NextDelay(4))
	assert.Equal(t, 10*time.Second, w.NextDelay(60))
}

func TestProcessBatchDelivers(t *testing.T) {
	store := memory.NewStore()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	clock := time.Now()

	first := enqueue(t, store, node, clock.Add(-time.Minute))
	second := enqueue(t, store, node, clock)
	enqueue(t, store, node, clock.Add(time.Hour))

	handler := &recordingHandler{}
	w := testWorker(store, handler, &clock)

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []snowflake.ID{first, second}, handler.events)

	stored, err := store.Repositories().Events.GetByID(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, enum.EventStatusProcessed, stored.Status)
	require.NotNil(t, stored.ProcessedAt)

	n, err = w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessBatchRetriesThenDeadLetters(t *testing.T) {
	store := memory.NewStore()
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	clock := time.Now()
	id := enqueue(t, store, node, clock)

	handler := &recordingHandler{fail: errors.New("ledger offline")}
	w := testWorker(store, handler, &clock)
	ctx := context.Background()

	_, err = w.ProcessBatch(ctx)
	require.NoError(t, err)
	event, err := store.Repositories().Events.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enum.EventStatusPending, event.Status)
	assert.Equal(t, 1, event.Attempts)
	assert.Equal(t, clock.Add(time.Second), event.NextAttemptAt)
	require.NotNil(t, event.LastError)
	assert.Equal(t, "ledger offline", *event.LastError)

	// not due yet
	n, err := w.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clock = clock.Add(time.Second)
	_, err = w.ProcessBatch(ctx)
	require.NoError(t, err)
	clock = clock.Add(2 * time.Second)
	_, err = w.ProcessBatch(ctx)
	require.NoError(t, err)

	event, err = store.Repositories().Events.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enum.EventStatusDead, event.Status)
	assert.Equal(t, 3, event.Attempts)
	assert.Len(t, handler.events, 3)

	clock = clock.Add(time.Hour)
	n, err = w.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunStopsWithContext(t *testing.T) {
	clock := time.Now()
	w := testWorker(memory.NewStore(), &recordingHandler{}, &clock)
	w.cfg.PollInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
