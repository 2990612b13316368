// Package listener issues invoices requested by other services over Kafka.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/invoice"
	"github.com/fekuna/omnipos-sales-service/internal/invoice/dto"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventInvoiceRequested = "invoice.requested"

// MessageReader is the part of *kafka.Reader the listener uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

type InvoiceListener struct {
	reader     MessageReader
	uc         invoice.UseCase
	logger     logger.ZapLogger
	retryDelay time.Duration
}

func NewInvoiceListener(reader MessageReader, uc invoice.UseCase, log logger.ZapLogger) *InvoiceListener {
	return &InvoiceListener{
		reader:     reader,
		uc:         uc,
		logger:     log,
		retryDelay: time.Second,
	}
}

// Start consumes until ctx is cancelled.
func (l *InvoiceListener) Start(ctx context.Context) {
	l.logger.Info("starting invoice request listener")
	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("stopping invoice request listener")
				return
			}
			l.logger.Error("failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.retryDelay):
			}
			continue
		}
		if err := l.processMessage(ctx, msg.Value); err != nil {
			l.logger.Error("failed to process invoice request",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

type InvoiceRequestedEvent struct {
	EventID   string                  `json:"event_id"`
	EventType string                  `json:"event_type"`
	Payload   InvoiceRequestedPayload `json:"payload"`
	Timestamp time.Time               `json:"timestamp"`
}

type InvoiceRequestedPayload struct {
	OrderID int64  `json:"order_id"`
	ActorID int64  `json:"actor_id"`
	Notes   string `json:"notes"`
}

// processMessage returns an error only for failures worth surfacing. Requests
// the domain rejects, such as an order that is already invoiced, are logged
// and skipped so redelivered messages are harmless.
func (l *InvoiceListener) processMessage(ctx context.Context, value []byte) error {
	var event InvoiceRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.EventType != EventInvoiceRequested {
		return nil
	}

	l.logger.Info("processing invoice request",
		zap.String("event_id", event.EventID),
		zap.Int64("order_id", event.Payload.OrderID),
	)

	inv, err := l.uc.Issue(ctx, &dto.IssueInput{
		OrderID: event.Payload.OrderID,
		ActorID: event.Payload.ActorID,
		Notes:   event.Payload.Notes,
	})
	if err != nil {
		if apperr.IsBusiness(err) {
			level := l.logger.Warn
			if errors.Is(err, apperr.ErrDuplicateKey) {
				level = l.logger.Info
			}
			level("invoice request skipped",
				zap.String("event_id", event.EventID),
				zap.Int64("order_id", event.Payload.OrderID),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	l.logger.Info("invoice issued from request",
		zap.String("event_id", event.EventID),
		zap.String("number", inv.Number),
	)
	return nil
}
