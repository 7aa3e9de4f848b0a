package postgres

import (
	"context"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/model"
)

type eventRepository struct {
	storage *Storage
}

// PendingEvents returns unsent outbox records oldest first.
func (r *eventRepository) PendingEvents(ctx context.Context, limit int) ([]model.LifecycleEvent, error) {
	const query = `SELECT id, event_id::text, order_id, topic, payload, created_at
                   FROM order_events
                   WHERE sent_at IS NULL
                   ORDER BY id
                   LIMIT $1`
	rows, err := r.storage.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.LifecycleEvent
	for rows.Next() {
		var e model.LifecycleEvent
		if err := rows.Scan(&e.ID, &e.EventID, &e.OrderID, &e.Topic, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *eventRepository) MarkEventSent(ctx context.Context, eventID int64) error {
	const query = `UPDATE order_events SET sent_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
