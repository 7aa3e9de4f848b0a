package model

import (
	"encoding/json"
	"time"
)

// LifecycleEvent is an outbox record emitted for every committed status change.
type LifecycleEvent struct {
	ID        int64
	EventID   string
	OrderID   int64
	Topic     string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// StatusChangedPayload is the body of a lifecycle event.
type StatusChangedPayload struct {
	EventID     string      `json:"event_id"`
	OrderID     int64       `json:"order_id"`
	OrderNumber *string     `json:"order_number,omitempty"`
	From        OrderStatus `json:"from"`
	To          OrderStatus `json:"to"`
	Total       string      `json:"total"`
	Actor       string      `json:"actor,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
