// Package handlers exposes the shopping assistant over HTTP.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/aws"
	"github.com/imrishuroy/bargainbot/internal/logging"
	"github.com/imrishuroy/bargainbot/internal/metrics"
	"github.com/imrishuroy/bargainbot/internal/negotiation"
	"github.com/imrishuroy/bargainbot/internal/oracle"
	"github.com/imrishuroy/bargainbot/internal/shopping"
	"github.com/imrishuroy/bargainbot/internal/tracking"
	"github.com/imrishuroy/bargainbot/internal/validation"
)

// HandlerConfig groups dependencies for the routes.
type HandlerConfig struct {
	Orchestrator *negotiation.Orchestrator
	Desk         *negotiation.Desk
	Preferences  *negotiation.PreferenceManager
	Shopping     *shopping.Service
	Trackers     *tracking.Registry

	// Checkout is only served when both AWS clients are set.
	DynamoDBClient   aws.DynamoDBAPI
	SQSClient        aws.SQSAPI
	IdempotencyTable string
	QueueURL         string
	TTLWindow        time.Duration

	Validator *validatorv10.Validate
	Metrics   metrics.Recorder
	Logger    *zap.Logger
}

func (cfg *HandlerConfig) defaults() {
	if cfg.Validator == nil {
		cfg.Validator = validation.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	cfg.Logger = logging.OrNop(cfg.Logger)
	if cfg.TTLWindow <= 0 {
		cfg.TTLWindow = 48 * time.Hour
	}
}

// RegisterRoutes registers every route the configured dependencies allow.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	cfg.defaults()
	// checkout and the tracking routes must share one registry
	if cfg.Trackers == nil {
		cfg.Trackers = tracking.NewRegistry(tracking.WithLogger(cfg.Logger))
	}

	RegisterNegotiationRoutes(r, cfg)
	RegisterShoppingRoutes(r, cfg)
	RegisterTrackingRoutes(r, cfg)

	if cfg.DynamoDBClient != nil && cfg.SQSClient != nil {
		RegisterOrdersRoutes(r, cfg)
	} else {
		cfg.Logger.Warn("checkout disabled: dynamodb or sqs client not configured")
	}
}

// writeOracleError answers a failed oracle-backed request.
func writeOracleError(c *gin.Context, cfg HandlerConfig, err error) {
	if validation.WriteError(c, err) {
		return
	}
	var oerr *oracle.Error
	if errors.As(err, &oerr) {
		incr(c.Request.Context(), cfg, metrics.OracleFailed, map[string]string{"flow": oerr.Flow})
	}
	cfg.Logger.Error("oracle request failed",
		zap.String("request_id", logging.RequestIDFrom(c)),
		zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "oracle_failed"})
}

func incr(ctx context.Context, cfg HandlerConfig, name string, dims map[string]string) {
	if err := cfg.Metrics.Incr(ctx, name, dims); err != nil {
		cfg.Logger.Warn("record metric", zap.String("metric", name), zap.Error(err))
	}
}
