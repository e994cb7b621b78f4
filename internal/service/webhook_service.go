package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/internal/gateway/razorpay"
	"github.com/nutrio/subscription-service/internal/metrics"
	"github.com/nutrio/subscription-service/pkg/logger"
)

// Типы событий вебхуков Razorpay, которые обрабатывает сервис
const (
	WebhookEventPaymentCaptured = "payment.captured"
	WebhookEventOrderPaid       = "order.paid"
	WebhookEventPaymentFailed   = "payment.failed"
)

// WebhookService интерфейс сервиса для обработки вебхуков платежного шлюза
type WebhookService interface {
	// ProcessWebhook проверяет подпись сырого тела и обрабатывает событие.
	// Проверка подписи идет до разбора тела и любого обращения к хранилищу.
	ProcessWebhook(ctx context.Context, body []byte, signature string) error
}

// webhookEnvelope конверт события Razorpay
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity orderEntity `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// paymentEntity платеж внутри события вебхука
type paymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// orderEntity заказ внутри события вебхука
type orderEntity struct {
	ID string `json:"id"`
}

type webhookService struct {
	subscriptionSvc SubscriptionService
	gateway         razorpay.PaymentGateway
	metrics         metrics.SubscriptionMetrics
	log             *logger.Logger
}

// NewWebhookService создает новый сервис обработки вебхуков
func NewWebhookService(
	subscriptionSvc SubscriptionService,
	gateway razorpay.PaymentGateway,
	m metrics.SubscriptionMetrics,
	log *logger.Logger,
) WebhookService {
	return &webhookService{
		subscriptionSvc: subscriptionSvc,
		gateway:         gateway,
		metrics:         m,
		log:             log,
	}
}

// ProcessWebhook проверяет подпись и диспетчеризует событие по типу
func (s *webhookService) ProcessWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		s.log.Warn("Webhook signature mismatch")
		s.metrics.IncSignatureRejected()
		return domain.ErrSignatureMismatch
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		s.log.Warn("Failed to parse webhook body: %v", err)
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	s.log.Info("Received webhook event: %s", envelope.Event)

	var err error
	switch envelope.Event {
	case WebhookEventPaymentCaptured:
		err = s.handlePaymentCaptured(ctx, envelope)
	case WebhookEventOrderPaid:
		err = s.handleOrderPaid(ctx, envelope)
	case WebhookEventPaymentFailed:
		err = s.handlePaymentFailed(ctx, envelope)
	default:
		// Неизвестные события подтверждаются без обработки,
		// чтобы шлюз не заваливал сервис повторами
		s.log.Debug("Ignored webhook event type: %s", envelope.Event)
		s.metrics.IncWebhookEvent(envelope.Event, "ignored")
		return nil
	}

	if err != nil {
		s.metrics.IncWebhookEvent(envelope.Event, "failed")
		return err
	}

	s.metrics.IncWebhookEvent(envelope.Event, "processed")
	return nil
}

// handlePaymentCaptured активирует подписку по захваченному платежу
func (s *webhookService) handlePaymentCaptured(ctx context.Context, envelope webhookEnvelope) error {
	payment := envelope.Payload.Payment.Entity
	if payment.OrderID == "" {
		return fmt.Errorf("payment.captured event without order id")
	}

	_, err := s.subscriptionSvc.ActivateOrder(ctx, payment.OrderID, payment.ID)
	return err
}

// handleOrderPaid активирует подписку по оплаченному заказу
func (s *webhookService) handleOrderPaid(ctx context.Context, envelope webhookEnvelope) error {
	orderID := envelope.Payload.Order.Entity.ID
	if orderID == "" {
		orderID = envelope.Payload.Payment.Entity.OrderID
	}
	if orderID == "" {
		return fmt.Errorf("order.paid event without order id")
	}

	_, err := s.subscriptionSvc.ActivateOrder(ctx, orderID, envelope.Payload.Payment.Entity.ID)
	return err
}

// handlePaymentFailed переводит подписку заказа в статус failed
func (s *webhookService) handlePaymentFailed(ctx context.Context, envelope webhookEnvelope) error {
	payment := envelope.Payload.Payment.Entity
	if payment.OrderID == "" {
		return fmt.Errorf("payment.failed event without order id")
	}

	_, err := s.subscriptionSvc.MarkFailed(ctx, payment.OrderID)
	return err
}
