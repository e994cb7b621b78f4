package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrInvalidPlan неизвестный тарифный план
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrAlreadySubscribed у пользователя уже есть активная подписка
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrSignatureMismatch подпись платежа не прошла проверку
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrInvalidPayload тело события не разбирается
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrGateway ошибка платежного шлюза
	ErrGateway = errors.New("payment gateway error")

	// ErrInvalidOperation неверная операция
	ErrInvalidOperation = errors.New("invalid operation")
)

// AlreadySubscribedError возвращается при попытке создать заказ,
// когда активная подписка уже существует. Несет существующую запись,
// чтобы вызывающая сторона могла показать ее вместо ошибки.
type AlreadySubscribedError struct {
	Existing Subscription
}

// Error реализует интерфейс error
func (e *AlreadySubscribedError) Error() string {
	return fmt.Sprintf("user %s already has an active subscription until %s",
		e.Existing.UserID, e.Existing.EndDate)
}

// Is проверяет, является ли ошибка ошибкой активной подписки
func (e *AlreadySubscribedError) Is(target error) bool {
	return target == ErrAlreadySubscribed
}

// NewAlreadySubscribedError создает новую ошибку активной подписки
func NewAlreadySubscribedError(existing Subscription) *AlreadySubscribedError {
	return &AlreadySubscribedError{Existing: existing}
}

// GatewayError представляет ошибку внешнего платежного шлюза
type GatewayError struct {
	Code        string
	Message     string
	StatusCode  int
	OriginalErr error
}

// Error реализует интерфейс error
func (e *GatewayError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("gateway error [%s]: %s: %v", e.Code, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("gateway error [%s]: %s", e.Code, e.Message)
}

// Unwrap возвращает оригинальную ошибку
func (e *GatewayError) Unwrap() error {
	return e.OriginalErr
}

// Is проверяет, является ли ошибка ошибкой шлюза
func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

// NewGatewayError создает новую ошибку платежного шлюза
func NewGatewayError(code, message string, statusCode int, err error) *GatewayError {
	return &GatewayError{
		Code:        code,
		Message:     message,
		StatusCode:  statusCode,
		OriginalErr: err,
	}
}
