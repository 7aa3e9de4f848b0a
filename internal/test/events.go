package test

import (
	"context"
	"sort"
	"sync"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/model"
)

// EventStoreStub keeps outbox records in memory.
type EventStoreStub struct {
	mu sync.Mutex

	Pending  map[int64]model.LifecycleEvent
	Sent     []int64
	FetchErr error
	MarkErr  error
}

// NewEventStoreStub seeds the outbox with events.
func NewEventStoreStub(events ...model.LifecycleEvent) *EventStoreStub {
	s := &EventStoreStub{Pending: make(map[int64]model.LifecycleEvent)}
	for _, e := range events {
		s.Pending[e.ID] = e
	}
	return s
}

// PendingEvents returns unsent events by id.
func (s *EventStoreStub) PendingEvents(ctx context.Context, limit int) ([]model.LifecycleEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	out := make([]model.LifecycleEvent, 0, len(s.Pending))
	for _, e := range s.Pending {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkEventSent removes an event from the pending set.
func (s *EventStoreStub) MarkEventSent(ctx context.Context, eventID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MarkErr != nil {
		return s.MarkErr
	}
	if _, ok := s.Pending[eventID]; !ok {
		return domainErrors.ErrNotFound
	}
	delete(s.Pending, eventID)
	s.Sent = append(s.Sent, eventID)
	return nil
}

// PendingCount returns the number of unsent events.
func (s *EventStoreStub) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Pending)
}

// PublisherStub records published events.
type PublisherStub struct {
	mu sync.Mutex

	Published []model.LifecycleEvent
	PublishFn func(context.Context, model.LifecycleEvent) error
	Closed    bool
}

// Publish records the event unless PublishFn rejects it.
func (p *PublisherStub) Publish(ctx context.Context, event model.LifecycleEvent) error {
	if p.PublishFn != nil {
		if err := p.PublishFn(ctx, event); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Published = append(p.Published, event)
	return nil
}

// Count returns how many events were published.
func (p *PublisherStub) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Published)
}

// Close marks the publisher closed.
func (p *PublisherStub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}
