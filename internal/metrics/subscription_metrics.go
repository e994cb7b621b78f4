package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nutrio/subscription-service/pkg/logger"
)

// SubscriptionMetrics интерфейс для метрик подписок
type SubscriptionMetrics interface {
	IncOrderCreated(plan string)
	IncActivation(plan string)
	IncActivationFailed(plan string)
	IncSignatureRejected()
	IncWebhookEvent(event, outcome string)
	IncGateDecision(decision string)
	ObserveOrderAmount(amount float64, currency string)
}

type subscriptionMetrics struct {
	log                *logger.Logger
	ordersCreated      *prometheus.CounterVec
	subscriptionStatus *prometheus.CounterVec
	signatureRejected  prometheus.Counter
	webhookEvents      *prometheus.CounterVec
	gateDecisions      *prometheus.CounterVec
	orderAmounts       *prometheus.HistogramVec
}

// NewSubscriptionMetrics создает новые метрики подписок
func NewSubscriptionMetrics(registry *prometheus.Registry, log *logger.Logger) SubscriptionMetrics {
	ordersCreated := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_orders_created_total",
			Help: "The total number of created subscription orders",
		},
		[]string{"plan"},
	)

	subscriptionStatus := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_status_total",
			Help: "The total number of subscription status transitions",
		},
		[]string{"status", "plan"},
	)

	signatureRejected := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_signature_rejected_total",
			Help: "The total number of rejected payment/webhook signatures",
		},
	)

	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_webhook_events_total",
			Help: "The total number of webhook events by type and outcome",
		},
		[]string{"event", "outcome"},
	)

	gateDecisions := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "premium_gate_decisions_total",
			Help: "The total number of premium gate decisions",
		},
		[]string{"decision"},
	)

	orderAmounts := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subscription_order_amount",
			Help:    "Order amounts distribution in minor units",
			Buckets: prometheus.ExponentialBuckets(1000, 4, 5),
		},
		[]string{"currency"},
	)

	return &subscriptionMetrics{
		log:                log,
		ordersCreated:      ordersCreated,
		subscriptionStatus: subscriptionStatus,
		signatureRejected:  signatureRejected,
		webhookEvents:      webhookEvents,
		gateDecisions:      gateDecisions,
		orderAmounts:       orderAmounts,
	}
}

// IncOrderCreated увеличивает счетчик созданных заказов
func (m *subscriptionMetrics) IncOrderCreated(plan string) {
	m.ordersCreated.WithLabelValues(plan).Inc()
}

// IncActivation увеличивает счетчик активаций
func (m *subscriptionMetrics) IncActivation(plan string) {
	m.subscriptionStatus.WithLabelValues("success", plan).Inc()
}

// IncActivationFailed увеличивает счетчик неудачных платежей
func (m *subscriptionMetrics) IncActivationFailed(plan string) {
	m.subscriptionStatus.WithLabelValues("failed", plan).Inc()
}

// IncSignatureRejected увеличивает счетчик отклоненных подписей
func (m *subscriptionMetrics) IncSignatureRejected() {
	m.signatureRejected.Inc()
}

// IncWebhookEvent увеличивает счетчик событий вебхуков
func (m *subscriptionMetrics) IncWebhookEvent(event, outcome string) {
	m.webhookEvents.WithLabelValues(event, outcome).Inc()
}

// IncGateDecision увеличивает счетчик решений premium gate
func (m *subscriptionMetrics) IncGateDecision(decision string) {
	m.gateDecisions.WithLabelValues(decision).Inc()
}

// ObserveOrderAmount записывает сумму заказа
func (m *subscriptionMetrics) ObserveOrderAmount(amount float64, currency string) {
	m.orderAmounts.WithLabelValues(currency).Observe(amount)
}
