package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/api/rest"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/config"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/integration/stripe"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/kafka"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/metrics"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/repository"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/service"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/worker"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.New(logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	log.Info("Subscription service starting up...")

	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	if cfg.Stripe.APIKey == "" {
		log.Warn("Stripe API key is not set, card subscriptions will fail")
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Подключаемся к базе данных
	pool, err := repository.NewPostgresPool(ctx, cfg.Database.DSN, log)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Базовые репозитории
	baseRepo := repository.NewPostgresSubscriptionRepository(pool, log)
	userRepo := repository.NewPostgresUserRepository(pool, log)

	// Кэш не критичен: при недоступности Redis работаем без кэширования
	var subscriptionRepo repository.SubscriptionRepository = baseRepo
	redisCache, err := repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Warn("Failed to initialize Redis cache, continuing without caching: %v", err)
	} else {
		log.Info("Redis cache initialized")
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing Redis connection: %v", err)
			}
		}()
		subscriptionRepo = repository.NewCachedSubscriptionRepository(baseRepo, redisCache, log)
	}

	// Публикация событий не критична для основного флоу
	var producer kafka.Producer
	producer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, log)
	if err != nil {
		log.Warn("Failed to initialize Kafka producer, continuing without event publishing: %v", err)
		producer = kafka.NoOpProducer{}
	} else {
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error("Error closing Kafka producer: %v", err)
			}
		}()
	}

	// Клиент Stripe
	stripeClient := stripe.NewClient(stripe.Config{
		APIKey: cfg.Stripe.APIKey,
		Prices: stripe.PriceTable{
			BusinessMonthly: cfg.Stripe.Prices.BusinessMonthly,
			BusinessAnnual:  cfg.Stripe.Prices.BusinessAnnual,
			VendorMonthly:   cfg.Stripe.Prices.VendorMonthly,
			VendorAnnual:    cfg.Stripe.Prices.VendorAnnual,
		},
	}, log)

	// Метрики
	registry := prometheus.NewRegistry()
	subscriptionMetrics := metrics.NewSubscriptionMetrics(registry, log)
	systemMetrics := metrics.NewSystemMetrics(registry, log)
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Сервис жизненного цикла подписок
	subscriptionSvc := service.NewSubscriptionService(
		subscriptionRepo,
		userRepo,
		stripeClient,
		producer,
		subscriptionMetrics,
		log,
	)

	// Воркер окончания пробных периодов
	trialWorker := worker.NewTrialWorker(subscriptionRepo, subscriptionSvc, cfg.Worker.TrialCheckInterval, log)
	trialWorker.Start(ctx)
	defer trialWorker.Stop()

	// HTTP сервер
	router := rest.SetupRouter(subscriptionSvc, registry, log)
	server := rest.NewServer(router, cfg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start HTTP server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	} else {
		log.Info("HTTP server gracefully stopped")
	}

	log.Info("Cleanup finished. Goodbye!")
}
