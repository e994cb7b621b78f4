package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrio/subscription-service/internal/api/rest/handlers"
	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/pkg/logger"
)

// stubWebhookService запоминает полученные тело и подпись
type stubWebhookService struct {
	err           error
	gotBody       []byte
	gotSignature  string
	processCalled bool
}

func (s *stubWebhookService) ProcessWebhook(ctx context.Context, body []byte, signature string) error {
	s.processCalled = true
	s.gotBody = body
	s.gotSignature = signature
	return s.err
}

func webhookRouter(svc *stubWebhookService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewWebhookHandler(svc, logger.New(logger.ERROR))

	r := gin.New()
	r.POST("/webhooks/razorpay", h.HandleRazorpayWebhook)
	return r
}

func postWebhook(router *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler(t *testing.T) {
	t.Run("acknowledges a processed event", func(t *testing.T) {
		svc := &stubWebhookService{}
		body := `{"event": "payment.captured", "payload": {}}`

		w := postWebhook(webhookRouter(svc), body, "sig")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"received":true`)
		assert.Equal(t, body, string(svc.gotBody))
		assert.Equal(t, "sig", svc.gotSignature)
	})

	t.Run("signature mismatch maps to 400", func(t *testing.T) {
		svc := &stubWebhookService{err: domain.ErrSignatureMismatch}

		w := postWebhook(webhookRouter(svc), `{"event": "payment.captured"}`, "bad")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid webhook signature")
	})

	t.Run("invalid payload maps to 400", func(t *testing.T) {
		svc := &stubWebhookService{err: domain.ErrInvalidPayload}

		w := postWebhook(webhookRouter(svc), `{"event":`, "sig")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid webhook payload")
	})

	t.Run("business failure after a valid signature is still acknowledged", func(t *testing.T) {
		svc := &stubWebhookService{err: assert.AnError}

		w := postWebhook(webhookRouter(svc), `{"event": "payment.captured", "payload": {}}`, "sig")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"received":true`)
	})

	t.Run("missing signature header is passed through empty", func(t *testing.T) {
		svc := &stubWebhookService{err: domain.ErrSignatureMismatch}

		w := postWebhook(webhookRouter(svc), `{"event": "payment.captured"}`, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.True(t, svc.processCalled)
		assert.Empty(t, svc.gotSignature)
	})
}
