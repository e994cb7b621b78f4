package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/internal/gateway/razorpay"
	"github.com/nutrio/subscription-service/internal/kafka"
	"github.com/nutrio/subscription-service/internal/metrics"
	"github.com/nutrio/subscription-service/internal/repository"
	"github.com/nutrio/subscription-service/pkg/logger"
)

// SubscriptionService интерфейс сервиса жизненного цикла подписок
type SubscriptionService interface {
	// CreateOrder создает заказ в платежном шлюзе и подписку в статусе pending
	CreateOrder(ctx context.Context, email string, planID domain.PlanID) (domain.OrderResult, error)

	// VerifyPayment проверяет подпись callback-а и активирует подписку
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (domain.Subscription, error)

	// ActivateOrder активирует подписку по заказу (путь вебхука, подпись
	// тела уже проверена вызывающей стороной)
	ActivateOrder(ctx context.Context, orderID, paymentID string) (domain.Subscription, error)

	// MarkFailed переводит подписку заказа в статус failed
	MarkFailed(ctx context.Context, orderID string) (domain.Subscription, error)

	// GetActiveSubscription возвращает действующую подписку пользователя.
	// Ее отсутствие - обычный результат, а не ошибка.
	GetActiveSubscription(ctx context.Context, email string) (domain.Subscription, bool, error)

	// GetActiveSubscriptionByUserID то же самое по ID пользователя
	GetActiveSubscriptionByUserID(ctx context.Context, userID uuid.UUID) (domain.Subscription, bool, error)
}

type subscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
	gateway          razorpay.PaymentGateway
	producer         kafka.Producer
	metrics          metrics.SubscriptionMetrics
	log              *logger.Logger
	now              func() time.Time
}

// NewSubscriptionService создает новый сервис жизненного цикла подписок
func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	gateway razorpay.PaymentGateway,
	producer kafka.Producer,
	m metrics.SubscriptionMetrics,
	log *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		gateway:          gateway,
		producer:         producer,
		metrics:          m,
		log:              log,
		now:              time.Now,
	}
}

// CreateOrder создает заказ в шлюзе и подписку в статусе pending.
// Порядок строгий: сначала заказ в шлюзе, потом локальная запись. Сбой
// шлюза не оставляет осиротевших строк.
func (s *subscriptionService) CreateOrder(ctx context.Context, email string, planID domain.PlanID) (domain.OrderResult, error) {
	s.log.Debug("Creating order for user: %s, plan: %s", email, planID)

	plan, err := domain.PlanByID(planID)
	if err != nil {
		s.log.Warn("Unknown plan requested: %s", planID)
		return domain.OrderResult{}, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("User not found: %s", email)
		} else {
			s.log.Error("Error fetching user: %v", err)
		}
		return domain.OrderResult{}, err
	}

	// Проверяем, нет ли уже действующей подписки. На этом пути
	// никаких побочных эффектов не происходит.
	existing, err := s.subscriptionRepo.GetActiveByUserID(ctx, user.ID, s.now())
	if err == nil {
		s.log.Warn("User %s already has an active subscription: %s", email, existing.ID)
		return domain.OrderResult{}, domain.NewAlreadySubscribedError(existing)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.log.Error("Error checking active subscription: %v", err)
		return domain.OrderResult{}, err
	}

	// Квитанция кодирует пользователя и время для расследований
	receipt := fmt.Sprintf("rcpt_%s_%d", user.ID.String()[:8], s.now().Unix())

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		AmountMinorUnits: plan.AmountMinorUnits,
		Currency:         plan.Currency,
		Receipt:          receipt,
		Notes: map[string]string{
			"user_id": user.ID.String(),
			"plan_id": string(plan.ID),
		},
	})
	if err != nil {
		s.log.Error("Failed to create gateway order: %v", err)
		return domain.OrderResult{}, err
	}

	subscription := domain.Subscription{
		ID:               uuid.New(),
		UserID:           user.ID,
		PlanID:           plan.ID,
		OrderID:          order.ID,
		AmountMinorUnits: plan.AmountMinorUnits,
		Currency:         plan.Currency,
		Status:           domain.SubscriptionStatusPending,
		IsActive:         false,
	}

	created, err := s.subscriptionRepo.Create(ctx, subscription)
	if err != nil {
		s.log.Error("Failed to persist pending subscription: %v", err)
		return domain.OrderResult{}, err
	}

	s.metrics.IncOrderCreated(string(plan.ID))
	s.metrics.ObserveOrderAmount(float64(plan.AmountMinorUnits), plan.Currency)
	s.publishEvent(ctx, kafka.TopicSubscriptionCreated, created)

	s.log.Info("Created pending subscription %s for order %s", created.ID, order.ID)
	return domain.OrderResult{
		OrderID:          order.ID,
		AmountMinorUnits: plan.AmountMinorUnits,
		Currency:         plan.Currency,
		SubscriptionID:   created.ID,
	}, nil
}

// VerifyPayment проверяет подпись и активирует подписку.
// Проверка подписи идет первой и при неудаче не трогает хранилище.
func (s *subscriptionService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (domain.Subscription, error) {
	s.log.Debug("Verifying payment for order: %s", orderID)

	if !s.gateway.VerifyPaymentSignature(orderID, paymentID, signature) {
		s.log.Warn("Payment signature mismatch for order: %s", orderID)
		s.metrics.IncSignatureRejected()
		return domain.Subscription{}, domain.ErrSignatureMismatch
	}

	return s.activate(ctx, orderID, paymentID, signature)
}

// ActivateOrder активирует подписку по заказу без проверки подписи платежа.
// Используется вебхуком после проверки HMAC тела.
func (s *subscriptionService) ActivateOrder(ctx context.Context, orderID, paymentID string) (domain.Subscription, error) {
	return s.activate(ctx, orderID, paymentID, "")
}

// activate выполняет переход pending -> success.
// Повторная активация уже успешной подписки - no-op, возвращает
// сохраненную запись с исходными датами: побеждает первый писатель.
func (s *subscriptionService) activate(ctx context.Context, orderID, paymentID, signature string) (domain.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("Subscription not found for order: %s", orderID)
		} else {
			s.log.Error("Error fetching subscription by order: %v", err)
		}
		return domain.Subscription{}, err
	}

	if subscription.Status == domain.SubscriptionStatusSuccess {
		s.log.Info("Subscription %s already activated, skipping", subscription.ID)
		return subscription, nil
	}

	plan, err := domain.PlanByID(subscription.PlanID)
	if err != nil {
		s.log.Error("Stored subscription %s references unknown plan: %s", subscription.ID, subscription.PlanID)
		return domain.Subscription{}, err
	}

	// Снимаем флаг с вытесняемых строк до активации, иначе частичный
	// уникальный индекс отклонит обновление
	if err := s.subscriptionRepo.ClearActiveFlags(ctx, subscription.UserID, subscription.ID); err != nil {
		s.log.Error("Failed to clear active flags for user %s: %v", subscription.UserID, err)
		return domain.Subscription{}, err
	}

	now := s.now()
	endDate := plan.PeriodEnd(now)

	subscription.Status = domain.SubscriptionStatusSuccess
	subscription.IsActive = true
	subscription.StartDate = &now
	subscription.EndDate = &endDate
	subscription.PaymentID = paymentID
	if signature != "" {
		subscription.Signature = signature
	}

	if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
		s.log.Error("Failed to activate subscription %s: %v", subscription.ID, err)
		return domain.Subscription{}, err
	}

	s.metrics.IncActivation(string(plan.ID))
	s.publishEvent(ctx, kafka.TopicSubscriptionActivated, subscription)

	s.log.Info("Activated subscription %s until %s", subscription.ID, endDate.Format(time.RFC3339))
	return subscription, nil
}

// MarkFailed переводит подписку заказа в статус failed.
// Уже успешная подписка не откатывается: статус двигается только вперед.
func (s *subscriptionService) MarkFailed(ctx context.Context, orderID string) (domain.Subscription, error) {
	s.log.Debug("Marking subscription failed for order: %s", orderID)

	subscription, err := s.subscriptionRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("Subscription not found for order: %s", orderID)
		} else {
			s.log.Error("Error fetching subscription by order: %v", err)
		}
		return domain.Subscription{}, err
	}

	if subscription.Status == domain.SubscriptionStatusSuccess {
		s.log.Warn("Ignoring failure signal for already activated subscription: %s", subscription.ID)
		return subscription, nil
	}

	if subscription.Status == domain.SubscriptionStatusFailed {
		return subscription, nil
	}

	subscription.Status = domain.SubscriptionStatusFailed
	subscription.IsActive = false
	// Даты не трогаем

	if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
		s.log.Error("Failed to mark subscription %s as failed: %v", subscription.ID, err)
		return domain.Subscription{}, err
	}

	s.metrics.IncActivationFailed(string(subscription.PlanID))
	s.publishEvent(ctx, kafka.TopicSubscriptionFailed, subscription)

	s.log.Info("Marked subscription %s as failed", subscription.ID)
	return subscription, nil
}

// GetActiveSubscription возвращает действующую подписку пользователя по email
func (s *subscriptionService) GetActiveSubscription(ctx context.Context, email string) (domain.Subscription, bool, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("User not found: %s", email)
		} else {
			s.log.Error("Error fetching user: %v", err)
		}
		return domain.Subscription{}, false, err
	}

	return s.GetActiveSubscriptionByUserID(ctx, user.ID)
}

// GetActiveSubscriptionByUserID возвращает действующую подписку пользователя
func (s *subscriptionService) GetActiveSubscriptionByUserID(ctx context.Context, userID uuid.UUID) (domain.Subscription, bool, error) {
	subscription, err := s.subscriptionRepo.GetActiveByUserID(ctx, userID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Subscription{}, false, nil
		}
		s.log.Error("Error fetching active subscription: %v", err)
		return domain.Subscription{}, false, err
	}

	return subscription, true, nil
}

// publishEvent отправляет событие жизненного цикла в Kafka.
// Сбой публикации логируется и не ломает основной поток.
func (s *subscriptionService) publishEvent(ctx context.Context, topic string, subscription domain.Subscription) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishSubscriptionEvent(ctx, topic, subscription); err != nil {
		s.log.Error("Failed to publish %s event for subscription %s: %v", topic, subscription.ID, err)
	}
}
