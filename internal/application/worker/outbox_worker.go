// Package worker runs background jobs next to the HTTP server.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/retry"
)

// EventHandler delivers one outbox event to its consumer
type EventHandler interface {
	HandleEvent(ctx context.Context, event *entity.IntegrationEvent) error
}

// OutboxConfig tunes polling and redelivery
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	// Lease is how long a claimed event stays invisible to other workers
	Lease time.Duration
}

// OutboxWorker delivers pending integration events. Failures are retried with
// backoff and never affect the sale that produced the event.
type OutboxWorker struct {
	uow     repository.UnitOfWork
	handler EventHandler
	cfg     OutboxConfig
	retry   retry.Policy
	now     func() time.Time
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(uow repository.UnitOfWork, handler EventHandler, cfg OutboxConfig, policy retry.Policy) *OutboxWorker {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 20
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 8
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Lease <= 0 {
		cfg.Lease = time.Minute
	}
	return &OutboxWorker{uow: uow, handler: handler, cfg: cfg, retry: policy, now: time.Now}
}

// Run polls until ctx is cancelled
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	log.Printf("[outbox] worker started, polling every %v", w.cfg.PollInterval)
	for {
		if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[outbox] batch failed: %v", err)
		}

		select {
		case <-ctx.Done():
			log.Println("[outbox] worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// ProcessBatch claims due events and delivers them, returning how many were handled
func (w *OutboxWorker) ProcessBatch(ctx context.Context) (int, error) {
	var events []entity.IntegrationEvent
	err := w.retry.Do(ctx, "outbox.claim", func() error {
		return w.uow.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
			claimed, err := repos.Events.ClaimDue(ctx, w.now(), w.cfg.Lease, w.cfg.BatchSize)
			events = claimed
			return err
		})
	})
	if err != nil {
		return 0, err
	}

	for i := range events {
		w.deliver(ctx, &events[i])
	}
	return len(events), nil
}

func (w *OutboxWorker) deliver(ctx context.Context, event *entity.IntegrationEvent) {
	events := w.uow.Repositories().Events

	err := w.handler.HandleEvent(ctx, event)
	if err == nil {
		if err := events.MarkProcessed(ctx, event.ID, w.now()); err != nil {
			log.Printf("[outbox] event %s (%s) delivered but not marked: %v", event.ID, event.Type, err)
		}
		return
	}

	attempts := event.Attempts + 1
	dead := attempts >= w.cfg.MaxAttempts
	next := w.now().Add(w.NextDelay(event.Attempts))
	if dead {
		log.Printf("[outbox] event %s (%s) dead after %d attempts: %v", event.ID, event.Type, attempts, err)
	} else {
		log.Printf("[outbox] event %s (%s) attempt %d failed, next at %s: %v",
			event.ID, event.Type, attempts, next.Format(time.RFC3339), err)
	}

	if markErr := events.MarkFailed(ctx, event.ID, attempts, next, err.Error(), dead); markErr != nil {
		log.Printf("[outbox] event %s failure not recorded: %v", event.ID, markErr)
	}
}

// NextDelay is min(base·2^attempts, max)
func (w *OutboxWorker) NextDelay(attempts int) time.Duration {
	delay := w.cfg.BaseDelay
	for i := 0; i < attempts; i++ {
		delay *= 2
		if w.cfg.MaxDelay > 0 && delay >= w.cfg.MaxDelay {
			return w.cfg.MaxDelay
		}
	}
	if w.cfg.MaxDelay > 0 && delay > w.cfg.MaxDelay {
		return w.cfg.MaxDelay
	}
	return delay
}
