package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/aws"
	"github.com/imrishuroy/bargainbot/internal/idempotency"
	"github.com/imrishuroy/bargainbot/internal/logging"
	"github.com/imrishuroy/bargainbot/internal/metrics"
	"github.com/imrishuroy/bargainbot/internal/orders"
)

// Processor dispatches placed orders to riders.
type Processor struct {
	idempStore *idempotency.Store
	metrics    metrics.Recorder
	log        *zap.Logger
	nowFunc    func() time.Time
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(dynamo aws.DynamoDBAPI, idempTable string, ttl time.Duration, rec metrics.Recorder, logger *zap.Logger) *Processor {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Processor{
		idempStore: idempotency.NewStore(dynamo, idempTable, ttl),
		metrics:    rec,
		log:        logging.OrNop(logger),
		nowFunc:    time.Now,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.log.Info("received sqs batch", zap.Int("records", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Lambda retries the batch; repeated failures go to the DLQ.
			p.log.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg orders.PlacedMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.OrderID == "" {
		return errors.New("invalid message body: missing order_id")
	}

	log := p.log.With(
		zap.String("order_id", msg.OrderID),
		zap.String("idempotency_key", msg.IdempotencyKey),
		zap.String("correlation_id", msg.CorrelationID))

	key := idempotency.DispatchKey(msg.OrderID)
	claim, err := p.idempStore.Acquire(ctx, key, msg.OrderID)
	if err != nil {
		return fmt.Errorf("claim dispatch: %w", err)
	}
	if !claim.Acquired {
		// DONE means already dispatched, IN_PROGRESS means another delivery owns it
		log.Info("duplicate dispatch message skipped", zap.String("status", claim.Existing.Status))
		return nil
	}

	assignment := orders.AssignRider(msg.OrderID, p.nowFunc())
	body, err := json.Marshal(assignment)
	if err != nil {
		p.markFailed(ctx, key, err)
		return fmt.Errorf("encode assignment: %w", err)
	}
	if err := p.idempStore.MarkDone(ctx, key, string(body), http.StatusOK); err != nil {
		p.markFailed(ctx, key, err)
		return fmt.Errorf("record dispatch: %w", err)
	}

	if err := p.metrics.Incr(ctx, metrics.OrdersDispatched, nil); err != nil {
		log.Warn("record metric", zap.Error(err))
	}
	log.Info("order dispatched",
		zap.String("rider", assignment.Rider),
		zap.String("plate", assignment.Plate),
		zap.Int("items", msg.ItemCount),
		zap.String("total", orders.FormatUGX(msg.Total)))
	return nil
}

func (p *Processor) markFailed(ctx context.Context, key string, cause error) {
	if err := p.idempStore.MarkFailed(ctx, key, cause.Error()); err != nil {
		p.log.Error("mark dispatch failed", zap.String("key", key), zap.Error(err))
	}
}
