package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/aws"
	"github.com/imrishuroy/bargainbot/internal/idempotency"
	"github.com/imrishuroy/bargainbot/internal/logging"
	"github.com/imrishuroy/bargainbot/internal/metrics"
	"github.com/imrishuroy/bargainbot/internal/orders"
	"github.com/imrishuroy/bargainbot/internal/tracking"
	"github.com/imrishuroy/bargainbot/internal/validation"
)

// IdempotencyKeyHeader must accompany every checkout.
const IdempotencyKeyHeader = "Idempotency-Key"

type placedResponse struct {
	OrderID      string       `json:"order_id"`
	Status       string       `json:"status"`
	Quote        orders.Quote `json:"quote"`
	TotalDisplay string       `json:"total_display"`
	TrackingURL  string       `json:"tracking_url"`
}

// RegisterOrdersRoutes registers the checkout route.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	cfg.defaults()
	idempStore := idempotency.NewStore(cfg.DynamoDBClient, cfg.IdempotencyTable, cfg.TTLWindow)
	publisher := aws.NewPublisher(cfg.SQSClient, cfg.QueueURL)
	trackers := cfg.Trackers
	if trackers == nil {
		trackers = tracking.NewRegistry(tracking.WithLogger(cfg.Logger))
	}
	log := cfg.Logger

	r.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CheckoutRequest
		if err := validation.BindAndValidate(c, &req, cfg.Validator); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		clientKey := c.GetHeader(IdempotencyKeyHeader)
		if clientKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
			return
		}
		key := idempotency.CheckoutKey(clientKey)

		order := orders.NewOrder(req, clientKey, time.Now())

		claim, err := idempStore.Acquire(ctx, key, order.OrderID)
		if err != nil {
			log.Error("idempotency check failed", zap.String("idempotency_key", clientKey), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
			return
		}
		if !claim.Acquired {
			replay(c, claim.Existing)
			return
		}

		reqID := logging.RequestIDFrom(c)
		attrs := map[string]string{
			"idempotency_key": clientKey,
			"order_id":        order.OrderID,
			"correlation_id":  reqID,
		}
		msgID, err := publisher.Publish(ctx, order.Message(reqID), attrs)
		if err != nil {
			// mark failed so the client can retry with the same key
			if merr := idempStore.MarkFailed(ctx, key, fmt.Sprintf("sqs_send_failed: %v", err)); merr != nil {
				log.Error("mark idempotency failed", zap.String("idempotency_key", clientKey), zap.Error(merr))
			}
			log.Error("enqueue order failed", zap.String("order_id", order.OrderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed"})
			return
		}

		trackers.Start(order.OrderID)

		resp := placedResponse{
			OrderID:      order.OrderID,
			Status:       order.Status,
			Quote:        order.Quote,
			TotalDisplay: order.TotalDisplay,
			TrackingURL:  "/tracking/" + order.OrderID,
		}
		body, err := json.Marshal(resp)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "encode_failed"})
			return
		}
		if err := markDone(ctx, idempStore, key, string(body)); err != nil {
			// the order is queued; retries with this key see 202 until the record expires
			log.Error("store checkout response", zap.String("idempotency_key", clientKey), zap.Error(err))
		}

		incr(ctx, cfg, metrics.OrdersPlaced, map[string]string{"payment_method": req.PaymentMethod})
		log.Info("order placed",
			zap.String("order_id", order.OrderID),
			zap.String("message_id", msgID),
			zap.Int64("total", order.Quote.Total),
			zap.String("request_id", reqID))

		c.Header("Location", resp.TrackingURL)
		c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
	})
}

// markDone stores the checkout response, trying once more on failure.
func markDone(ctx context.Context, store *idempotency.Store, key, body string) error {
	err := store.MarkDone(ctx, key, body, http.StatusCreated)
	if err == nil || errors.Is(err, idempotency.ErrConditionFailed) {
		return err
	}
	return store.MarkDone(ctx, key, body, http.StatusCreated)
}

// replay answers a checkout whose key was already used.
func replay(c *gin.Context, rec *idempotency.Record) {
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" && json.Valid([]byte(rec.ResponseBody)) {
			c.Header("Idempotent-Replayed", "true")
			c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "order_id": rec.OrderID})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}
