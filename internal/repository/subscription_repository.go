package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/google/uuid"
	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/pkg/logger"
)

// SubscriptionRepository интерфейс репозитория для работы с подписками
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription domain.Subscription) (domain.Subscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Subscription, error)
	GetByOrderID(ctx context.Context, orderID string) (domain.Subscription, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error)
	GetActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (domain.Subscription, error)
	Update(ctx context.Context, subscription domain.Subscription) error
	ClearActiveFlags(ctx context.Context, userID uuid.UUID, except uuid.UUID) error
}

// InMemorySubscriptionRepository реализация репозитория подписок в памяти
type InMemorySubscriptionRepository struct {
	subscriptions map[uuid.UUID]domain.Subscription
	mutex         sync.RWMutex
	log           *logger.Logger
}

// NewInMemorySubscriptionRepository создает новый репозиторий подписок в памяти
func NewInMemorySubscriptionRepository(log *logger.Logger) *InMemorySubscriptionRepository {
	return &InMemorySubscriptionRepository{
		subscriptions: make(map[uuid.UUID]domain.Subscription),
		log:           log,
	}
}

// Create создает новую подписку
func (r *InMemorySubscriptionRepository) Create(ctx context.Context, subscription domain.Subscription) (domain.Subscription, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Один заказ шлюза соответствует одной строке подписки
	for _, existing := range r.subscriptions {
		if existing.OrderID == subscription.OrderID {
			return domain.Subscription{}, ErrDuplicate
		}
	}

	subscription.CreatedAt = time.Now()
	subscription.UpdatedAt = time.Now()

	r.subscriptions[subscription.ID] = subscription

	return subscription, nil
}

// GetByID возвращает подписку по ID
func (r *InMemorySubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Subscription, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	subscription, exists := r.subscriptions[id]
	if !exists {
		return domain.Subscription{}, ErrNotFound
	}

	return subscription, nil
}

// GetByOrderID возвращает подписку по ID заказа платежного шлюза
func (r *InMemorySubscriptionRepository) GetByOrderID(ctx context.Context, orderID string) (domain.Subscription, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, subscription := range r.subscriptions {
		if subscription.OrderID == orderID {
			return subscription, nil
		}
	}

	return domain.Subscription{}, ErrNotFound
}

// GetByUserID возвращает все подписки пользователя
func (r *InMemorySubscriptionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var subscriptions []domain.Subscription
	for _, subscription := range r.subscriptions {
		if subscription.UserID == userID {
			subscriptions = append(subscriptions, subscription)
		}
	}

	return subscriptions, nil
}

// GetActiveByUserID возвращает последнюю действующую подписку пользователя.
// Действующей считается строка со статусом success, is_active и
// датой окончания позже now.
func (r *InMemorySubscriptionRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (domain.Subscription, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var latest domain.Subscription
	found := false
	for _, subscription := range r.subscriptions {
		if subscription.UserID != userID || !subscription.ActiveAt(now) {
			continue
		}
		if !found || subscription.CreatedAt.After(latest.CreatedAt) {
			latest = subscription
			found = true
		}
	}

	if !found {
		return domain.Subscription{}, ErrNotFound
	}

	return latest, nil
}

// Update обновляет существующую подписку
func (r *InMemorySubscriptionRepository) Update(ctx context.Context, subscription domain.Subscription) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, exists := r.subscriptions[subscription.ID]
	if !exists {
		return ErrNotFound
	}

	subscription.UpdatedAt = time.Now()
	r.subscriptions[subscription.ID] = subscription

	return nil
}

// ClearActiveFlags снимает флаг is_active с прочих успешных подписок
// пользователя. Вызывается при активации, чтобы истекшая подписка не
// блокировала частичный уникальный индекс при продлении.
func (r *InMemorySubscriptionRepository) ClearActiveFlags(ctx context.Context, userID uuid.UUID, except uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for id, subscription := range r.subscriptions {
		if subscription.UserID != userID || id == except {
			continue
		}
		if subscription.Status == domain.SubscriptionStatusSuccess && subscription.IsActive {
			subscription.IsActive = false
			subscription.UpdatedAt = time.Now()
			r.subscriptions[id] = subscription
		}
	}

	return nil
}

// PostgresSubscriptionRepository реализация репозитория подписок через PostgreSQL
type PostgresSubscriptionRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresSubscriptionRepository создает новый репозиторий подписок через PostgreSQL
func NewPostgresSubscriptionRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{
		db:  db,
		log: log,
	}
}

const subscriptionColumns = `
	id, user_id, plan_id, order_id, payment_id, signature,
	amount, currency, status, is_active,
	start_date, end_date, created_at, updated_at
`

// scanSubscription читает одну строку подписки
func scanSubscription(row pgx.Row) (domain.Subscription, error) {
	var subscription domain.Subscription
	var planID string

	err := row.Scan(
		&subscription.ID,
		&subscription.UserID,
		&planID,
		&subscription.OrderID,
		&subscription.PaymentID,
		&subscription.Signature,
		&subscription.AmountMinorUnits,
		&subscription.Currency,
		&subscription.Status,
		&subscription.IsActive,
		&subscription.StartDate,
		&subscription.EndDate,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		return domain.Subscription{}, err
	}

	subscription.PlanID = domain.PlanID(planID)
	return subscription, nil
}

// Create создает новую подписку в базе данных
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, subscription domain.Subscription) (domain.Subscription, error) {
	query := `
		INSERT INTO subscriptions (
			id, user_id, plan_id, order_id, payment_id, signature,
			amount, currency, status, is_active,
			start_date, end_date, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRow(
		ctx,
		query,
		subscription.ID,
		subscription.UserID,
		string(subscription.PlanID),
		subscription.OrderID,
		subscription.PaymentID,
		subscription.Signature,
		subscription.AmountMinorUnits,
		subscription.Currency,
		subscription.Status,
		subscription.IsActive,
		subscription.StartDate,
		subscription.EndDate,
		now,
		now,
	).Scan(
		&subscription.ID,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// 23505 - нарушение уникальности (order_id или частичный
			// индекс одной незакрытой подписки на пользователя)
			if pgErr.Code == "23505" {
				return domain.Subscription{}, ErrDuplicate
			}
			// 23503 - нарушение внешнего ключа на users
			if pgErr.Code == "23503" {
				return domain.Subscription{}, ErrNotFound
			}
		}
		return domain.Subscription{}, fmt.Errorf("failed to create subscription: %w", err)
	}

	return subscription, nil
}

// GetByID возвращает подписку по ID из базы данных
func (r *PostgresSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	subscription, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscription{}, ErrNotFound
		}
		return domain.Subscription{}, fmt.Errorf("failed to get subscription: %w", err)
	}

	return subscription, nil
}

// GetByOrderID возвращает подписку по ID заказа платежного шлюза
func (r *PostgresSubscriptionRepository) GetByOrderID(ctx context.Context, orderID string) (domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE order_id = $1`

	subscription, err := scanSubscription(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscription{}, ErrNotFound
		}
		return domain.Subscription{}, fmt.Errorf("failed to get subscription by order: %w", err)
	}

	return subscription, nil
}

// GetByUserID возвращает все подписки пользователя из базы данных
func (r *PostgresSubscriptionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []domain.Subscription
	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, subscription)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subscriptions, nil
}

// GetActiveByUserID возвращает последнюю действующую подписку пользователя.
// Срок сравнивается с переданным now прямо в запросе.
func (r *PostgresSubscriptionRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		  AND status = 'success'
		  AND is_active = TRUE
		  AND end_date > $2
		ORDER BY created_at DESC
		LIMIT 1`

	subscription, err := scanSubscription(r.db.QueryRow(ctx, query, userID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscription{}, ErrNotFound
		}
		return domain.Subscription{}, fmt.Errorf("failed to get active subscription: %w", err)
	}

	return subscription, nil
}

// Update обновляет существующую подписку в базе данных
func (r *PostgresSubscriptionRepository) Update(ctx context.Context, subscription domain.Subscription) error {
	query := `
		UPDATE subscriptions
		SET
			payment_id = $1,
			signature = $2,
			status = $3,
			is_active = $4,
			start_date = $5,
			end_date = $6,
			updated_at = $7
		WHERE id = $8
	`

	result, err := r.db.Exec(
		ctx,
		query,
		subscription.PaymentID,
		subscription.Signature,
		subscription.Status,
		subscription.IsActive,
		subscription.StartDate,
		subscription.EndDate,
		time.Now(),
		subscription.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ClearActiveFlags снимает флаг is_active с прочих успешных подписок
// пользователя. Вызывается при активации, чтобы истекшая подписка не
// блокировала частичный уникальный индекс при продлении.
func (r *PostgresSubscriptionRepository) ClearActiveFlags(ctx context.Context, userID uuid.UUID, except uuid.UUID) error {
	query := `
		UPDATE subscriptions
		SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1
		  AND id <> $2
		  AND status = 'success'
		  AND is_active = TRUE
	`

	if _, err := r.db.Exec(ctx, query, userID, except); err != nil {
		return fmt.Errorf("failed to clear active flags: %w", err)
	}

	return nil
}
