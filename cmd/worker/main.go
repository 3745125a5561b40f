package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/aws"
	"github.com/imrishuroy/bargainbot/internal/config"
	"github.com/imrishuroy/bargainbot/internal/logging"
	"github.com/imrishuroy/bargainbot/internal/metrics"
)

const localBody = `{"order_id":"local-order-1","idempotency_key":"local-key-1","total":3850,"item_count":2}`

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	clients, err := aws.NewAWSClients(context.Background(), aws.Settings{Region: cfg.AWS.Region, Endpoint: cfg.AWS.Endpoint})
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}
	if cfg.AWS.IdempotencyTable == "" {
		logger.Fatal("aws.idempotency_table is required")
	}

	p := NewProcessor(
		clients.DynamoDB,
		cfg.AWS.IdempotencyTable,
		cfg.AWS.IdempotencyTTL,
		metrics.NewCloudWatch(clients.CloudWatch, cfg.Metrics.Namespace),
		logger,
	)

	// Locally, process a single simulated SQS event and exit.
	if cfg.Server.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = localBody
		}
		event := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local-1", Body: body}}}
		if err := p.Handle(context.Background(), event); err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}
