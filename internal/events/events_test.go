package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaPublisherWritesKeyedMessages(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w)
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	e, err := New(TypeInvoiceIssued, "order-7", map[string]any{"invoice_number": "FAC-2025-000001"}, now)
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "order-7", string(msg.Key))
	assert.Equal(t, now, msg.Time)
	assert.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte(TypeInvoiceIssued)}}, msg.Headers)

	var decoded struct {
		EventID   string                 `json:"event_id"`
		EventType string                 `json:"event_type"`
		Payload   map[string]interface{} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, e.ID, decoded.EventID)
	assert.Equal(t, TypeInvoiceIssued, decoded.EventType)
	assert.Equal(t, "FAC-2025-000001", decoded.Payload["invoice_number"])
}

func TestKafkaPublisherWrapsWriterErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaPublisher(&fakeWriter{err: boom})

	e, err := New(TypeStockMovement, "product-1", struct{}{}, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(context.Background(), e), boom)
	assert.NoError(t, p.Publish(context.Background()))
}

func TestEventIDsAreUnique(t *testing.T) {
	a, err := New(TypeOrderStateChanged, "1", nil, time.Now())
	require.NoError(t, err)
	b, err := New(TypeOrderStateChanged, "1", nil, time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), a, b))
}
