package handlers

import (
	"errors"
	"net/http"

	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/internal/repository"
	"github.com/nutrio/subscription-service/internal/service"
	"github.com/nutrio/subscription-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// SubscriptionHandler обработчик для подписок
type SubscriptionHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(svc service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: svc,
		log:     log,
	}
}

// CreateOrder создает заказ в платежном шлюзе и подписку в статусе pending
func (h *SubscriptionHandler) CreateOrder(c *gin.Context) {
	var req domain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create order request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreateOrder(c.Request.Context(), req.Email, domain.PlanID(req.PlanID))
	if err != nil {
		var alreadySubscribed *domain.AlreadySubscribedError
		if errors.As(err, &alreadySubscribed) {
			h.log.Warn("User %s already has an active subscription", req.Email)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":        "User already has an active subscription",
				"subscription": alreadySubscribed.Existing,
			})
			return
		}

		if errors.Is(err, domain.ErrInvalidPlan) {
			h.log.Warn("Invalid plan requested: %s", req.PlanID)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan"})
			return
		}

		if errors.Is(err, repository.ErrNotFound) {
			h.log.Warn("User not found: %s", req.Email)
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		var gatewayErr *domain.GatewayError
		if errors.As(err, &gatewayErr) {
			h.log.Error("Payment gateway error: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway unavailable"})
			return
		}

		h.log.Error("Failed to create order: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	h.log.Info("Created order %s for user %s", result.OrderID, req.Email)
	c.JSON(http.StatusCreated, result)
}

// VerifyPayment проверяет подпись callback-а и активирует подписку
func (h *SubscriptionHandler) VerifyPayment(c *gin.Context) {
	var req domain.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid verify payment request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subscription, err := h.service.VerifyPayment(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		if errors.Is(err, domain.ErrSignatureMismatch) {
			h.log.Warn("Payment signature mismatch for order %s", req.OrderID)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment signature"})
			return
		}

		if errors.Is(err, repository.ErrNotFound) {
			h.log.Warn("Order not found: %s", req.OrderID)
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}

		h.log.Error("Failed to verify payment for order %s: %v", req.OrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment"})
		return
	}

	h.log.Info("Payment verified, subscription %s activated", subscription.ID)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Payment verified successfully",
		"subscription": subscription,
	})
}

// GetUserSubscription возвращает действующую подписку пользователя по email.
// Отсутствие действующей подписки - обычный ответ 200, а не 404.
func (h *SubscriptionHandler) GetUserSubscription(c *gin.Context) {
	email := c.Param("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	subscription, active, err := h.service.GetActiveSubscription(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.log.Warn("User not found: %s", email)
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		h.log.Error("Failed to get subscription for %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscription"})
		return
	}

	if !active {
		c.JSON(http.StatusOK, gin.H{
			"hasActiveSubscription": false,
			"subscription":          nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hasActiveSubscription": true,
		"subscription":          subscription,
	})
}

// Status возвращает статус подписки по email из тела запроса
func (h *SubscriptionHandler) Status(c *gin.Context) {
	var req domain.SubscriptionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid status request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subscription, active, err := h.service.GetActiveSubscription(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.log.Warn("User not found: %s", req.Email)
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		h.log.Error("Failed to get subscription status for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscription status"})
		return
	}

	if !active {
		c.JSON(http.StatusOK, gin.H{
			"isActive":     false,
			"subscription": nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isActive":     true,
		"subscription": subscription,
	})
}

// GetPlans возвращает список доступных тарифов
func (h *SubscriptionHandler) GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": domain.AllPlans()})
}
