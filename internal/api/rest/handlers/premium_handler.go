package handlers

import (
	"net/http"

	"github.com/nutrio/subscription-service/internal/api/rest/middleware"
	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// PremiumHandler обработчик премиум-контента
type PremiumHandler struct {
	log *logger.Logger
}

// NewPremiumHandler создает новый обработчик премиум-контента
func NewPremiumHandler(log *logger.Logger) *PremiumHandler {
	return &PremiumHandler{log: log}
}

// GetContent отдает премиум-контент. Доступ уже проверен PremiumGate,
// подписка лежит в контексте запроса.
func (h *PremiumHandler) GetContent(c *gin.Context) {
	value, ok := c.Get(middleware.ContextKeySubscription)
	if !ok {
		h.log.Error("Premium gate did not attach a subscription to the request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subscription context missing"})
		return
	}

	subscription, ok := value.(domain.Subscription)
	if !ok {
		h.log.Error("Unexpected subscription type in request context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subscription context missing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content": gin.H{
			"workouts":   []string{"hiit-advanced", "strength-block-2", "mobility-deep"},
			"mealPlans":  []string{"cut-2200kcal", "bulk-3100kcal"},
			"validUntil": subscription.EndDate,
		},
		"plan": subscription.PlanID,
	})
}
