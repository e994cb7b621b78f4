package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/internal/repository"
	"github.com/nutrio/subscription-service/pkg/logger"
)

// UserService интерфейс сервиса для работы с пользователями
type UserService interface {
	// Sync создает или обновляет пользователя, приходящего от
	// внешнего провайдера аутентификации
	Sync(ctx context.Context, req domain.SyncUserRequest) (domain.User, error)

	// GetByEmail возвращает пользователя по email
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *logger.Logger
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository, log *logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log,
	}
}

// Sync создает пользователя или обновляет существующего по email
func (s *userService) Sync(ctx context.Context, req domain.SyncUserRequest) (domain.User, error) {
	s.log.Debug("Syncing user: %s", req.Email)

	user := domain.User{
		Email: req.Email,
		Name:  req.Name,
	}

	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			s.log.Warn("Invalid UUID format for user ID: %s", req.ID)
			return domain.User{}, repository.ErrInvalidData
		}
		user.ID = id
	}

	synced, err := s.userRepo.Upsert(ctx, user)
	if err != nil {
		s.log.Error("Failed to sync user: %v", err)
		return domain.User{}, err
	}

	s.log.Info("Synced user %s (%s)", synced.Email, synced.ID)
	return synced, nil
}

// GetByEmail возвращает пользователя по email
func (s *userService) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrNotFound {
			s.log.Warn("User not found: %s", email)
		} else {
			s.log.Error("Error fetching user: %v", err)
		}
		return domain.User{}, err
	}

	return user, nil
}
