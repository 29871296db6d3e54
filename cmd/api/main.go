package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/inventory-ops-service/internal/application"
	"github.com/wms-platform/inventory-ops-service/internal/infrastructure/clients"
	kafkaInfra "github.com/wms-platform/inventory-ops-service/internal/infrastructure/kafka"
	mongoRepo "github.com/wms-platform/inventory-ops-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/inventory-ops-service/pkg/kafka"
	"github.com/wms-platform/inventory-ops-service/pkg/logging"
	"github.com/wms-platform/inventory-ops-service/pkg/metrics"
	"github.com/wms-platform/inventory-ops-service/pkg/middleware"
	"github.com/wms-platform/inventory-ops-service/pkg/mongodb"
	"github.com/wms-platform/inventory-ops-service/pkg/tracing"
)

const serviceName = "inventory-ops-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = getEnv("LOG_LEVEL", "info")
	logger := logging.New(logConfig)

	logger.Info("starting inventory-ops-service API")

	config := loadConfig()
	ctx := context.Background()

	// Tracing is optional, the service runs fine without a collector.
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "false") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(serviceName)

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("connected to MongoDB", "database", config.MongoDB.Database)

	producer := kafka.NewProducer(config.Kafka, "/"+serviceName, logger)
	defer producer.Close()
	logger.Info("kafka producer initialized", "brokers", config.Kafka.Brokers)

	publisher := kafkaInfra.NewEventPublisher(producer)

	db := mongoClient.Database()
	ledgerRepo := mongoRepo.NewLedgerRepository(db)
	movementRepo := mongoRepo.NewMovementRepository(db)
	reservationRepo := mongoRepo.NewReservationRepository(db)
	waveRepo := mongoRepo.NewWaveRepository(db)
	suggestionRepo := mongoRepo.NewSuggestionRepository(db)
	recommendationRepo := mongoRepo.NewRecommendationRepository(db)
	cycleCountRepo := mongoRepo.NewCycleCountRepository(db)
	policyRepo := mongoRepo.NewPolicyRepository(db)
	locationRepo := mongoRepo.NewLocationRepository(db)
	productRepo := mongoRepo.NewProductRepository(db)

	orderClient := clients.NewOrderServiceClient(config.OrderServiceURL)

	allocationService := application.NewAllocationService(
		ledgerRepo, movementRepo, reservationRepo, publisher, m,
		logging.WithComponent(logger, "allocation"),
	).WithConflictRetries(config.ConflictMaxRetries)
	waveService := application.NewWaveService(
		waveRepo, ledgerRepo, allocationService, orderClient, publisher, m,
		logging.WithComponent(logger, "waving"),
	)
	replenishmentService := application.NewReplenishmentService(
		suggestionRepo, policyRepo, locationRepo, ledgerRepo, allocationService, publisher, m,
		logging.WithComponent(logger, "replenishment"),
	)
	slottingService := application.NewSlottingService(
		recommendationRepo, locationRepo, productRepo, ledgerRepo, allocationService, publisher, m,
		logging.WithComponent(logger, "slotting"),
	).WithScoreFloor(config.SlottingScoreFloor)
	cycleCountService := application.NewCycleCountService(
		cycleCountRepo, ledgerRepo, allocationService, publisher, m,
		logging.WithComponent(logger, "cycle-count"),
	)
	queryService := application.NewQueryService(ledgerRepo, movementRepo)

	router := gin.New()
	middleware.Setup(router, logger, m)
	router.Use(middleware.ErrorHandler(logger))

	middleware.RegisterHealthEndpoints(router, func() error {
		return mongoClient.HealthCheck(ctx)
	})
	middleware.RegisterMetricsEndpoint(router, m)

	api := router.Group("/api/v1")
	api.Use(middleware.TenantAuth())
	{
		stock := api.Group("/stock")
		{
			stock.POST("/receive", receiveStockHandler(allocationService))
			stock.POST("/move", moveStockHandler(allocationService))
			stock.POST("/adjust", adjustStockHandler(allocationService))
			stock.GET("/:productId", getStockHandler(queryService))
			stock.GET("/:productId/available", getAvailableHandler(queryService))
		}

		reservations := api.Group("/reservations")
		{
			reservations.POST("", reserveStockHandler(allocationService))
			reservations.POST("/:reservationId/commit", commitPickHandler(allocationService))
			reservations.POST("/:reservationId/release", releaseReservationHandler(allocationService))
		}

		movements := api.Group("/movements")
		{
			movements.GET("/correlation/:correlationId", traceByCorrelationHandler(queryService))
			movements.GET("/product/:productId", traceByProductHandler(queryService))
		}

		waves := api.Group("/waves")
		{
			waves.POST("", planWaveHandler(waveService))
			waves.GET("/:waveId", getWaveHandler(waveService))
			waves.POST("/:waveId/release", releaseWaveHandler(waveService))
			waves.POST("/:waveId/execute", executeWaveHandler(waveService))
			waves.POST("/:waveId/cancel", cancelWaveHandler(waveService))
		}

		replenishment := api.Group("/replenishment")
		{
			replenishment.POST("/evaluate", evaluateReplenishmentHandler(replenishmentService))
			replenishment.GET("/suggestions", listSuggestionsHandler(replenishmentService))
			replenishment.POST("/suggestions/:suggestionId/approve", suggestionActionHandler(replenishmentService.Approve))
			replenishment.POST("/suggestions/:suggestionId/reject", suggestionActionHandler(replenishmentService.Reject))
			replenishment.POST("/suggestions/:suggestionId/execute", suggestionActionHandler(replenishmentService.Execute))
			replenishment.GET("/policies", listPoliciesHandler(replenishmentService))
			replenishment.PUT("/policies", upsertPolicyHandler(replenishmentService))
		}

		slotting := api.Group("/slotting")
		{
			slotting.POST("/evaluate", evaluateSlottingHandler(slottingService, queryService))
			slotting.GET("/recommendations", listRecommendationsHandler(slottingService))
			slotting.POST("/recommendations/:recommendationId/approve", recommendationActionHandler(slottingService.Approve))
			slotting.POST("/recommendations/:recommendationId/reject", recommendationActionHandler(slottingService.Reject))
			slotting.POST("/recommendations/:recommendationId/execute", recommendationActionHandler(slottingService.Execute))
		}

		cycleCounts := api.Group("/cycle-counts")
		{
			cycleCounts.POST("", createCycleCountHandler(cycleCountService))
			cycleCounts.GET("/:taskId", getCycleCountHandler(cycleCountService))
			cycleCounts.POST("/:taskId/counts", executeCycleCountHandler(cycleCountService))
			cycleCounts.POST("/:taskId/review", reviewCycleCountHandler(cycleCountService))
		}
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()
	logger.Info("server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr         string
	OrderServiceURL    string
	ConflictMaxRetries int
	SlottingScoreFloor int
	MongoDB            mongodb.Config
	Kafka              kafka.Config
}

func loadConfig() *Config {
	mongoCfg := mongodb.DefaultConfig()
	mongoCfg.URI = getEnv("MONGODB_URI", mongoCfg.URI)
	mongoCfg.Database = getEnv("MONGODB_DATABASE", mongoCfg.Database)

	kafkaCfg := kafka.DefaultConfig()
	kafkaCfg.Brokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	return &Config{
		ServerAddr:         getEnv("SERVER_ADDR", ":8010"),
		OrderServiceURL:    getEnv("ORDER_SERVICE_URL", "http://localhost:8003"),
		ConflictMaxRetries: getEnvInt("CONFLICT_MAX_RETRIES", application.DefaultConflictRetries),
		SlottingScoreFloor: getEnvInt("SLOTTING_SCORE_FLOOR", application.DefaultScoreFloor),
		MongoDB:            mongoCfg,
		Kafka:              kafkaCfg,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
