package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/aws"
	"github.com/imrishuroy/bargainbot/internal/config"
	"github.com/imrishuroy/bargainbot/internal/handlers"
	"github.com/imrishuroy/bargainbot/internal/logging"
	"github.com/imrishuroy/bargainbot/internal/metrics"
	"github.com/imrishuroy/bargainbot/internal/negotiation"
	"github.com/imrishuroy/bargainbot/internal/oracle"
	"github.com/imrishuroy/bargainbot/internal/shopping"
	"github.com/imrishuroy/bargainbot/internal/telemetry"
	"github.com/imrishuroy/bargainbot/internal/tracking"
	"github.com/imrishuroy/bargainbot/internal/validation"
)

func setupRouter(cfg handlers.HandlerConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestID(), logging.Middleware(logger))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	// .env is optional; real deployments set the environment directly
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

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	shutdownTracer := func(context.Context) error { return nil }
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, logger)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		shutdownTracer = shutdown
	}

	clients, err := aws.NewAWSClients(ctx, aws.Settings{Region: cfg.AWS.Region, Endpoint: cfg.AWS.Endpoint})
	if err != nil {
		return fmt.Errorf("init aws clients: %w", err)
	}

	gen, err := oracle.NewGeminiGenerator(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model)
	if err != nil {
		return fmt.Errorf("init oracle: %w", err)
	}
	v := validation.New()
	oc := oracle.New(gen,
		oracle.WithTimeout(cfg.Oracle.Timeout),
		oracle.WithValidator(v),
		oracle.WithLogger(logger),
	)

	recorder := metrics.NewCloudWatch(clients.CloudWatch, cfg.Metrics.Namespace)
	orchestrator := negotiation.NewOrchestrator(oc, v, logger)
	desk := negotiation.NewDesk(negotiation.DeskConfig{
		Orchestrator: orchestrator,
		Validator:    v,
		Metrics:      recorder,
		Timeout:      cfg.Negotiation.Timeout,
		Logger:       logger,
	})
	trackers := tracking.NewRegistry(
		tracking.WithInterval(cfg.Tracking.Interval),
		tracking.WithLogger(logger),
	)

	hcfg := handlers.HandlerConfig{
		Orchestrator: orchestrator,
		Desk:         desk,
		Preferences:  negotiation.NewPreferenceManager(oc, v, logger),
		Shopping:     shopping.NewService(oc, v, logger),
		Trackers:     trackers,
		Validator:    v,
		Metrics:      recorder,
		Logger:       logger,
	}
	if cfg.AWS.IdempotencyTable != "" && cfg.AWS.OrdersQueueURL != "" {
		hcfg.DynamoDBClient = clients.DynamoDB
		hcfg.SQSClient = clients.SQS
		hcfg.IdempotencyTable = cfg.AWS.IdempotencyTable
		hcfg.QueueURL = cfg.AWS.OrdersQueueURL
		hcfg.TTLWindow = cfg.AWS.IdempotencyTTL
	}

	r := setupRouter(hcfg, logger)

	if !cfg.Server.RunLocal {
		// lambda adapter
		adapter := ginadapter.New(r)
		lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			return adapter.ProxyWithContext(ctx, req)
		})
		return nil
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: otelhttp.NewHandler(r, "bargainbot"),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("running local server", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := desk.Wait(shutdownCtx); err != nil {
		logger.Warn("negotiations still in flight at shutdown", zap.Error(err))
	}
	trackers.StopAll()
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown", zap.Error(err))
	}
	return nil
}
