package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus статус подписки
type SubscriptionStatus string

const (
	SubscriptionStatusPending SubscriptionStatus = "pending"
	SubscriptionStatusSuccess SubscriptionStatus = "success"
	SubscriptionStatusFailed  SubscriptionStatus = "failed"
)

// Subscription представляет собой модель подписки.
// Статус двигается только вперед: pending -> success или pending -> failed.
// Сумма фиксируется при создании заказа и больше не пересчитывается.
type Subscription struct {
	ID               uuid.UUID          `json:"id"`
	UserID           uuid.UUID          `json:"user_id"`
	PlanID           PlanID             `json:"plan_id"`
	OrderID          string             `json:"order_id"`
	PaymentID        string             `json:"payment_id,omitempty"`
	Signature        string             `json:"signature,omitempty"`
	AmountMinorUnits int64              `json:"amount"`
	Currency         string             `json:"currency"`
	Status           SubscriptionStatus `json:"status"`
	IsActive         bool               `json:"is_active"`
	StartDate        *time.Time         `json:"start_date,omitempty"`
	EndDate          *time.Time         `json:"end_date,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ActiveAt сообщает, действует ли подписка в момент now.
// Срок проверяется по часам на каждом чтении, фонового "протухания" нет.
func (s Subscription) ActiveAt(now time.Time) bool {
	if s.Status != SubscriptionStatusSuccess || !s.IsActive {
		return false
	}
	if s.EndDate == nil {
		return false
	}
	return s.EndDate.After(now)
}

// CreateOrderRequest представляет запрос на создание заказа
type CreateOrderRequest struct {
	Email  string `json:"email" binding:"required,email"`
	PlanID string `json:"planId" binding:"required,plan"`
}

// VerifyPaymentRequest представляет callback платежного потока.
// Имена полей повторяют формат callback-а Razorpay.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// SubscriptionStatusRequest представляет запрос статуса подписки
type SubscriptionStatusRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// OrderResult результат создания заказа
type OrderResult struct {
	OrderID          string    `json:"orderId"`
	AmountMinorUnits int64     `json:"amount"`
	Currency         string    `json:"currency"`
	SubscriptionID   uuid.UUID `json:"subscriptionId"`
}
