package repository

import (
	"context"

	"github.com/polkiloo/posorder/internal/domain/model"
)

// EventRepository reads and acknowledges lifecycle outbox records.
type EventRepository interface {
	PendingEvents(ctx context.Context, limit int) ([]model.LifecycleEvent, error)
	MarkEventSent(ctx context.Context, eventID int64) error
}
