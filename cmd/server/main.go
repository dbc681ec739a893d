package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/labstack/echo/v4"

	"github.com/ticketing-platform/core/internal/config"
	"github.com/ticketing-platform/core/internal/database"
	"github.com/ticketing-platform/core/internal/eventbus"
	"github.com/ticketing-platform/core/internal/handler"
	"github.com/ticketing-platform/core/internal/httpclient"
	"github.com/ticketing-platform/core/internal/observability"
	"github.com/ticketing-platform/core/internal/repository"
	"github.com/ticketing-platform/core/internal/router"
	"github.com/ticketing-platform/core/internal/service"
)

func main() {
	// 1. Load .env if present (ignore error in dev/local)
	if err := godotenv.Load(); err != nil {
		log.Println("info: .env not found; using defaults/env")
	}

	// 2. Load configuration
	cfg := config.Load()

	// 3. Initialize logger
	logger := initLogger(cfg.Env)
	logger.Info().Str("env", cfg.Env).Msg("ticketing platform starting")

	// 4. Initialize metrics
	_ = observability.NewMetrics()

	// 5. Connect to MySQL
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// 6. Connect to Redis (used for hold rate limiting; nil degrades gracefully)
	redisClient := config.NewRedisClient()
	if redisClient == nil {
		logger.Warn().Msg("redis unavailable, hold rate limiting disabled")
	}

	// 7. Connect to RabbitMQ and declare topology
	conn, err := amqp.Dial(cfg.BrokerURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to broker")
	}
	defer conn.Close()

	topologyCh, err := conn.Channel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open broker channel")
	}
	if err := eventbus.DeclareTopology(topologyCh, []eventbus.QueueBinding{eventbus.InventoryConsumerBindings}); err != nil {
		logger.Fatal().Err(err).Msg("failed to declare broker topology")
	}
	_ = topologyCh.Close()
	logger.Info().Msg("broker topology declared")

	// 8. Repositories, one outbox table and one dedup table per owning service
	inventoryRepo := repository.NewInventoryRepo(db)
	holdRepo := repository.NewHoldRepo(db)
	inventoryOutbox := repository.NewOutboxRepo(db, "inventory_outbox")
	inventoryConsumed := repository.NewConsumedEventRepo(db, "inventory_consumed_events")

	orderRepo := repository.NewOrderRepo(db)
	orderOutbox := repository.NewOutboxRepo(db, "order_outbox")

	orchestratorHoldRepo := repository.NewOrchestratorHoldRepo(db)
	orchestratorOutbox := repository.NewOutboxRepo(db, "orchestrator_outbox")

	// 9. Services
	inventoryService := service.NewInventoryService(db, inventoryRepo, holdRepo, inventoryOutbox, logger)
	orderService := service.NewOrderService(db, orderRepo, orderOutbox, nil, logger)

	inventoryClient := httpclient.NewInventoryClient(cfg.InventoryBaseURL, cfg.InventoryCallTimeout)
	orchestratorService := service.NewOrchestratorService(orchestratorHoldRepo, inventoryClient, cfg.HoldTTL, logger)
	orderClient := httpclient.NewOrderClient(cfg.OrderBaseURL, cfg.InventoryCallTimeout)

	expiryLoop := service.NewExpiryLoop(db, orchestratorHoldRepo, orchestratorOutbox, cfg.ExpiryLoopInterval, cfg.OutboxBatchSize, logger)

	// 10. HTTP handlers
	handlers := router.Handlers{
		Inventory: handler.NewInventoryHandler(inventoryService, logger),
		Order:     handler.NewOrderHandler(orderService, logger),
		Orchestrator: handler.NewOrchestratorHandler(
			orchestratorService,
			orderClient,
			redisClient,
			cfg.HoldRateLimitCapacity,
			cfg.HoldRateLimitRefillTokens,
			cfg.HoldRateLimitRefillInterval,
			cfg.HoldRateLimitTTL,
			logger,
		),
	}

	e := echo.New()
	router.RegisterRoutes(e, handlers, redisClient)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start background workers
	go expiryLoop.Run(ctx)
	logger.Info().Msg("expiry loop started")

	go runOutboxPublisher(ctx, conn, inventoryOutbox, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger, "inventory_outbox")
	go runOutboxPublisher(ctx, conn, orderOutbox, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger, "order_outbox")
	go runOutboxPublisher(ctx, conn, orchestratorOutbox, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger, "orchestrator_outbox")
	logger.Info().Msg("outbox publishers started")

	go runInventoryConsumer(ctx, conn, inventoryConsumed, inventoryService, cfg, logger)
	logger.Info().Msg("inventory consumer started")

	// 12. Start HTTP server
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// 13. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("shutting down gracefully...")

	// 14. Graceful shutdown
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	logger.Info().Msg("shutdown complete")
}

// runOutboxPublisher opens a dedicated confirm-mode channel for one
// outbox table and runs its Publisher until ctx is cancelled. Each
// table gets its own channel since amqp091-go channels are not safe for
// concurrent publisher-confirm bookkeeping across goroutines.
func runOutboxPublisher(ctx context.Context, conn *amqp.Connection, outbox *repository.OutboxRepo, interval time.Duration, batchSize int, logger zerolog.Logger, label string) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Error().Err(err).Str("outbox", label).Msg("failed to open publisher channel")
		return
	}
	defer ch.Close()
	if err := ch.Confirm(false); err != nil {
		logger.Error().Err(err).Str("outbox", label).Msg("failed to enable publisher confirms")
		return
	}
	publisher := eventbus.NewPublisher(ch, outbox, interval, batchSize, logger)
	publisher.Run(ctx)
}

// runInventoryConsumer runs the consumer that applies hold.expired and
// order.confirmed to the inventory side. In production this would be
// supervised with reconnect/backoff; the per-message retry/backoff the
// consumer already does covers the common transient-failure case.
func runInventoryConsumer(ctx context.Context, conn *amqp.Connection, consumed *repository.ConsumedEventRepo, inventoryService *service.InventoryService, cfg config.Config, logger zerolog.Logger) {
	handlerFn := eventbus.NewInventoryConsumerHandler(inventoryService)
	consumer := eventbus.NewConsumer(consumed.DB(), consumed, eventbus.InventoryQueueName, cfg.ConsumerRetryCap, cfg.ConsumerPrefetch, handlerFn, logger)
	if err := consumer.Run(ctx, conn); err != nil {
		logger.Error().Err(err).Msg("inventory consumer stopped")
	}
}

func initLogger(env string) zerolog.Logger {
	level := zerolog.InfoLevel
	if env == "development" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Caller().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
