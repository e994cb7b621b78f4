package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nutrio/subscription-service/internal/api/rest"
	"github.com/nutrio/subscription-service/internal/config"
	"github.com/nutrio/subscription-service/internal/db"
	"github.com/nutrio/subscription-service/internal/gateway/razorpay"
	"github.com/nutrio/subscription-service/internal/kafka"
	"github.com/nutrio/subscription-service/internal/metrics"
	"github.com/nutrio/subscription-service/internal/repository"
	"github.com/nutrio/subscription-service/internal/service"
	"github.com/nutrio/subscription-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := initLogger()

	log.Infow("Subscription service starting up...")

	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalw("Failed to load configuration", "error", err)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := db.NewConnection(ctx, cfg.Database.DSN, log)
	if err != nil {
		log.Fatalw("Failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Infow("Database connection established")

	if err := db.RunMigrations(ctx, pool, log); err != nil {
		log.Fatalw("Failed to run database migrations", "error", err)
	}

	userRepo := repository.NewPostgresUserRepository(pool, log)
	subscriptionRepo := repository.NewPostgresSubscriptionRepository(pool, log)

	gateway := razorpay.NewClient(razorpay.Config{
		KeyID:         cfg.Razorpay.KeyID,
		KeySecret:     cfg.Razorpay.KeySecret,
		WebhookSecret: cfg.Razorpay.WebhookSecret,
		BaseURL:       cfg.Razorpay.BaseURL,
	}, log)

	var producer kafka.Producer
	producer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, log)
	if err != nil {
		log.Errorw("Failed to initialize Kafka producer, continuing without event publishing", "error", err)
		producer = kafka.NoOpProducer{}
	} else {
		log.Infow("Kafka producer initialized")
	}
	defer func() {
		if err := producer.Close(); err != nil {
			log.Errorw("Error closing Kafka producer", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	subscriptionMetrics := metrics.NewSubscriptionMetrics(registry, log)

	subscriptionSvc := service.NewSubscriptionService(subscriptionRepo, userRepo, gateway, producer, subscriptionMetrics, log)
	webhookSvc := service.NewWebhookService(subscriptionSvc, gateway, subscriptionMetrics, log)
	userSvc := service.NewUserService(userRepo, log)

	router := rest.SetupRouter(rest.Services{
		Subscription: subscriptionSvc,
		Webhook:      webhookSvc,
		User:         userSvc,
	}, subscriptionMetrics, registry, log)

	server := rest.NewServer(router, cfg.App.Port, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalw("Failed to start HTTP server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	} else {
		log.Infow("HTTP server gracefully stopped")
	}

	log.Infow("Cleanup finished. Goodbye!")
}

// initLogger инициализирует новый логгер
func initLogger() *logger.Logger {
	logLevel := logger.INFO
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = logger.DEBUG
	}
	return logger.New(logLevel)
}
