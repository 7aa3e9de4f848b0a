package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/posorder/internal/domain/model"
	"github.com/polkiloo/posorder/internal/domain/repository"
	"github.com/polkiloo/posorder/internal/events"
	"github.com/polkiloo/posorder/internal/metrics"
)

// OutboxRelay polls unsent lifecycle events and publishes them with a worker pool.
// An event stays pending until it has been published and acknowledged, so
// failures are retried on a later poll.
type OutboxRelay struct {
	events       repository.EventRepository
	publisher    events.Publisher
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger
	metrics      *metrics.Metrics

	jobs     chan model.LifecycleEvent
	inflight map[int64]struct{}
	flightMu sync.Mutex

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewOutboxRelay constructs the relay worker pool.
func NewOutboxRelay(
	events repository.EventRepository,
	publisher events.Publisher,
	pollInterval time.Duration,
	batchSize, workers int,
	logger *slog.Logger,
	m *metrics.Metrics,
) *OutboxRelay {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &OutboxRelay{
		events:       events,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		metrics:      m,
		jobs:         make(chan model.LifecycleEvent, batchSize),
		inflight:     make(map[int64]struct{}),
	}
}

// Start launches background relaying.
func (r *OutboxRelay) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *OutboxRelay) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *OutboxRelay) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx)
		}
	}
}

func (r *OutboxRelay) fetchAndDispatch(ctx context.Context) {
	pending, err := r.events.PendingEvents(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("fetch pending events failed", slog.String("error", err.Error()))
		return
	}
	for _, event := range pending {
		if !r.claim(event.ID) {
			continue
		}
		select {
		case <-ctx.Done():
			r.release(event.ID)
			return
		case r.jobs <- event:
		}
	}
}

// claim marks an event as being relayed; a poll that sees it again skips it.
func (r *OutboxRelay) claim(id int64) bool {
	r.flightMu.Lock()
	defer r.flightMu.Unlock()
	if _, busy := r.inflight[id]; busy {
		return false
	}
	r.inflight[id] = struct{}{}
	return true
}

func (r *OutboxRelay) release(id int64) {
	r.flightMu.Lock()
	delete(r.inflight, id)
	r.flightMu.Unlock()
}

func (r *OutboxRelay) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.jobs:
			if !ok {
				return
			}
			r.handleEvent(ctx, event)
		}
	}
}

func (r *OutboxRelay) handleEvent(ctx context.Context, event model.LifecycleEvent) {
	defer r.release(event.ID)

	if err := r.publisher.Publish(ctx, event); err != nil {
		r.metrics.EventRelayed("failed")
		r.logger.Warn("publish event failed",
			slog.String("event_id", event.EventID),
			slog.Int64("order_id", event.OrderID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := r.events.MarkEventSent(ctx, event.ID); err != nil {
		// published but not acknowledged: it will be sent again, consumers dedupe on event_id
		r.metrics.EventRelayed("unacknowledged")
		r.logger.Error("mark event sent failed",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return
	}
	r.metrics.EventRelayed("sent")
}
