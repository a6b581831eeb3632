package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/shopify-support-api/internal/journal"
	"github.com/imrishuroy/shopify-support-api/internal/logger"
)

// Journal persists reply events.
type Journal interface {
	Record(ctx context.Context, ev journal.ReplyEvent) (bool, error)
}

// Processor handles SQS batches of reply events and writes them to the journal.
type Processor struct {
	journal Journal
}

// NewProcessor creates a new worker processor.
func NewProcessor(j Journal) *Processor {
	return &Processor{journal: j}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	log := logger.FromContext(ctx)
	log.Info("received sqs batch", zap.Int("records", len(ev.Records)))

	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Lambda retries the batch; repeated failures go to the DLQ.
			log.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev journal.ReplyEvent
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	ctx = logger.WithRequestID(ctx, ev.RequestID)
	log := logger.FromContext(ctx)

	written, err := p.journal.Record(ctx, ev)
	if errors.Is(err, journal.ErrMissingRequestID) {
		return fmt.Errorf("message %s: %w", rec.MessageId, err)
	}
	if err != nil {
		return fmt.Errorf("record reply: %w", err)
	}

	if !written {
		log.Info("duplicate reply event", zap.String("order_id", ev.OrderID))
		return nil
	}
	log.Info("reply journaled", zap.String("order_id", ev.OrderID), zap.String("mode", ev.Mode))
	return nil
}
