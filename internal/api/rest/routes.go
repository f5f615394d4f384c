package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/api/rest/handlers"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/api/rest/middleware"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/service"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(subscriptionSvc service.SubscriptionService, registry *prometheus.Registry, log *logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionSvc, log)

	v1 := r.Group("/api/v1")
	{
		subscriptions := v1.Group("/subscriptions")
		{
			subscriptions.POST("", subscriptionHandler.StartSubscription)
			subscriptions.GET("", subscriptionHandler.ListSubscriptions)
			subscriptions.GET("/:id", subscriptionHandler.GetSubscription)
			subscriptions.POST("/:id/trial-end", subscriptionHandler.HandleTrialEnd)
			subscriptions.DELETE("/:id", subscriptionHandler.CancelSubscription)
		}
	}

	return r
}
