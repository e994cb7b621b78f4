package rest

import (
	"github.com/nutrio/subscription-service/internal/api/rest/handlers"
	"github.com/nutrio/subscription-service/internal/api/rest/middleware"
	"github.com/nutrio/subscription-service/internal/metrics"
	"github.com/nutrio/subscription-service/internal/service"
	"github.com/nutrio/subscription-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services сервисы, которые обслуживают HTTP-слой
type Services struct {
	Subscription service.SubscriptionService
	Webhook      service.WebhookService
	User         service.UserService
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(svcs Services, m metrics.SubscriptionMetrics, registry *prometheus.Registry, log *logger.Logger) *gin.Engine {
	r := gin.New()

	// Подключение middleware
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Инициализация обработчиков
	subscriptionHandler := handlers.NewSubscriptionHandler(svcs.Subscription, log)
	webhookHandler := handlers.NewWebhookHandler(svcs.Webhook, log)
	userHandler := handlers.NewUserHandler(svcs.User, log)
	premiumHandler := handlers.NewPremiumHandler(log)

	v1 := r.Group("/api/v1")
	{
		// Подписки
		subscription := v1.Group("/subscription")
		{
			subscription.POST("/create-order", subscriptionHandler.CreateOrder)
			subscription.POST("/verify", subscriptionHandler.VerifyPayment)
			subscription.POST("/status", subscriptionHandler.Status)
		}

		v1.GET("/subscriptions/user/:email", subscriptionHandler.GetUserSubscription)
		v1.GET("/plans", subscriptionHandler.GetPlans)

		// Пользователи
		v1.POST("/users/sync", userHandler.SyncUser)

		// Премиум-контент за gate-ом
		premium := v1.Group("/premium")
		premium.Use(middleware.PremiumGate(svcs.Subscription, m, log))
		{
			premium.GET("/content", premiumHandler.GetContent)
		}
	}

	// Вебхуки на корневом уровне роутера
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/razorpay", webhookHandler.HandleRazorpayWebhook)
	}

	return r
}
