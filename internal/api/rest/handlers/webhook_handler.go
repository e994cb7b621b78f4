package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/internal/service"
	"github.com/nutrio/subscription-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// WebhookHandler обработчик для вебхуков платежного шлюза
type WebhookHandler struct {
	service service.WebhookService
	log     *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(svc service.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		log:     log,
	}
}

// HandleRazorpayWebhook обрабатывает вебхуки от Razorpay.
// Подпись считается по сырому телу, поэтому тело читается до разбора JSON.
// Ошибки бизнес-логики после валидной подписи подтверждаются 200, иначе
// шлюз будет бесконечно ретраить событие, которое мы уже не обработаем.
func (h *WebhookHandler) HandleRazorpayWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Error("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read webhook body"})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")

	if err := h.service.ProcessWebhook(c.Request.Context(), body, signature); err != nil {
		if errors.Is(err, domain.ErrSignatureMismatch) {
			h.log.Warn("Webhook signature mismatch")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook signature"})
			return
		}

		if errors.Is(err, domain.ErrInvalidPayload) {
			h.log.Warn("Invalid webhook payload: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
			return
		}

		h.log.Error("Webhook processing failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
