package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrio/subscription-service/internal/api/rest/middleware"
	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/internal/metrics"
	"github.com/nutrio/subscription-service/pkg/logger"
)

// stubSubscriptionService отдает заранее заданный ответ о подписке
type stubSubscriptionService struct {
	subscription domain.Subscription
	active       bool
	err          error
	lastEmail    string
}

func (s *stubSubscriptionService) CreateOrder(ctx context.Context, email string, planID domain.PlanID) (domain.OrderResult, error) {
	return domain.OrderResult{}, nil
}

func (s *stubSubscriptionService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (domain.Subscription, error) {
	return domain.Subscription{}, nil
}

func (s *stubSubscriptionService) ActivateOrder(ctx context.Context, orderID, paymentID string) (domain.Subscription, error) {
	return domain.Subscription{}, nil
}

func (s *stubSubscriptionService) MarkFailed(ctx context.Context, orderID string) (domain.Subscription, error) {
	return domain.Subscription{}, nil
}

func (s *stubSubscriptionService) GetActiveSubscription(ctx context.Context, email string) (domain.Subscription, bool, error) {
	s.lastEmail = email
	return s.subscription, s.active, s.err
}

func (s *stubSubscriptionService) GetActiveSubscriptionByUserID(ctx context.Context, userID uuid.UUID) (domain.Subscription, bool, error) {
	return s.subscription, s.active, s.err
}

func gatedRouter(svc *stubSubscriptionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New(logger.ERROR)
	m := metrics.NewSubscriptionMetrics(prometheus.NewRegistry(), log)

	r := gin.New()
	gated := r.Group("/premium")
	gated.Use(middleware.PremiumGate(svc, m, log))
	gated.GET("/content", func(c *gin.Context) {
		value, ok := c.Get(middleware.ContextKeySubscription)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no subscription in context"})
			return
		}
		sub := value.(domain.Subscription)
		c.JSON(http.StatusOK, gin.H{"plan": sub.PlanID})
	})
	gated.POST("/content", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	return r
}

func activeSubscription() domain.Subscription {
	end := time.Now().AddDate(0, 6, 0)
	start := time.Now()
	return domain.Subscription{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		PlanID:    domain.PlanSixMonth,
		Status:    domain.SubscriptionStatusSuccess,
		IsActive:  true,
		StartDate: &start,
		EndDate:   &end,
	}
}

func TestPremiumGate(t *testing.T) {
	t.Run("missing identity is unauthorized", func(t *testing.T) {
		router := gatedRouter(&stubSubscriptionService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/premium/content", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "User identity required")
	})

	t.Run("no active subscription is forbidden", func(t *testing.T) {
		svc := &stubSubscriptionService{active: false}
		router := gatedRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/premium/content", nil)
		req.Header.Set("X-User-Email", "athlete@example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Active subscription required")
		assert.Equal(t, "athlete@example.com", svc.lastEmail)
	})

	t.Run("active subscriber passes with the subscription in context", func(t *testing.T) {
		svc := &stubSubscriptionService{subscription: activeSubscription(), active: true}
		router := gatedRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/premium/content", nil)
		req.Header.Set("X-User-Email", "athlete@example.com")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), string(domain.PlanSixMonth))
	})

	t.Run("identity may come from a POST body", func(t *testing.T) {
		svc := &stubSubscriptionService{subscription: activeSubscription(), active: true}
		router := gatedRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/premium/content",
			strings.NewReader(`{"email": "athlete@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "athlete@example.com", svc.lastEmail)
	})

	t.Run("lookup error without an active subscription is forbidden", func(t *testing.T) {
		svc := &stubSubscriptionService{err: assert.AnError}
		router := gatedRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/premium/content", nil)
		req.Header.Set("X-User-Email", "athlete@example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
