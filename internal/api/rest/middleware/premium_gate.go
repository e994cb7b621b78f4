package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nutrio/subscription-service/internal/metrics"
	"github.com/nutrio/subscription-service/internal/service"
	"github.com/nutrio/subscription-service/pkg/logger"
)

// ContextKeySubscription ключ, под которым gate кладет подписку в контекст
const ContextKeySubscription = "premium_subscription"

// identityBody минимальное тело запроса, несущее идентификатор пользователя
type identityBody struct {
	Email string `json:"email"`
}

// PremiumGate создает middleware, пропускающее только пользователей с
// действующей подпиской. Проверка закрыта по умолчанию: нет
// идентификатора - 401, нет действующей подписки - 403.
// Состояние перечитывается на каждый запрос, кеша нет.
func PremiumGate(subscriptionSvc service.SubscriptionService, m metrics.SubscriptionMetrics, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := extractEmail(c)
		if email == "" {
			log.Warn("Premium gate: missing user identity for %s", c.Request.RequestURI)
			m.IncGateDecision("unauthorized")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User identity required"})
			return
		}

		subscription, active, err := subscriptionSvc.GetActiveSubscription(c.Request.Context(), email)
		if err != nil && !active {
			// Неизвестный пользователь не отличается от пользователя
			// без подписки: и тем и другим закрыт доступ
			log.Warn("Premium gate: denied %s: %v", email, err)
		}
		if !active {
			m.IncGateDecision("forbidden")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Active subscription required"})
			return
		}

		m.IncGateDecision("allowed")
		c.Set(ContextKeySubscription, subscription)
		c.Next()
	}
}

// extractEmail достает идентификатор пользователя из заголовка
// аутентифицирующего прокси, либо из тела запроса для POST.
// Тело восстанавливается для следующего обработчика.
func extractEmail(c *gin.Context) string {
	if email := c.GetHeader("X-User-Email"); email != "" {
		return email
	}

	if c.Request.Method != http.MethodPost || c.Request.Body == nil {
		return ""
	}

	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var body identityBody
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return ""
	}
	return body.Email
}
