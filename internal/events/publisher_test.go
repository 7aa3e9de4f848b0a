package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/posorder/internal/config"
	"github.com/polkiloo/posorder/internal/domain/model"
)

type writerStub struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *writerStub) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *writerStub) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() model.LifecycleEvent {
	return model.LifecycleEvent{
		ID:        1,
		EventID:   "0b7c9c1e-0000-4000-8000-000000000001",
		OrderID:   42,
		Topic:     "order-lifecycle",
		Payload:   json.RawMessage(`{"to":"PAID"}`),
		CreatedAt: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisherKeysByOrder(t *testing.T) {
	w := &writerStub{}
	p := &KafkaPublisher{writer: w, defaultTopic: "fallback"}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, "order-lifecycle", msg.Topic)
	assert.JSONEq(t, `{"to":"PAID"}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_id", msg.Headers[0].Key)

	untopiced := sampleEvent()
	untopiced.Topic = ""
	require.NoError(t, p.Publish(context.Background(), untopiced))
	assert.Equal(t, "fallback", w.messages[1].Topic)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &writerStub{err: boom}}
	err := p.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Contains(t, buf.String(), `"order_id":42`)
	assert.Contains(t, buf.String(), "order lifecycle event")
	assert.NoError(t, p.Close())
}

func TestNewPublisherSelectsBackend(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	p := newPublisher(publisherParams{Config: &config.Config{}, Logger: logger})
	assert.IsType(t, &LogPublisher{}, p)

	p = newPublisher(publisherParams{
		Config: &config.Config{KafkaBrokers: []string{"localhost:9092"}, EventsTopic: "orders"},
		Logger: logger,
	})
	kp, ok := p.(*KafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "orders", kp.defaultTopic)
}

func TestRegisterLifecycleClosesPublisher(t *testing.T) {
	w := &writerStub{}
	lc := fxtest.NewLifecycle(t)
	registerLifecycle(lc, &KafkaPublisher{writer: w})

	lc.RequireStart()
	lc.RequireStop()
	assert.True(t, w.closed)
}
