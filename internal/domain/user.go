package domain

import (
	"time"

	"github.com/google/uuid"
)

// User представляет собой модель пользователя.
// Пользователи создаются внешним провайдером аутентификации и
// синхронизируются в сервис, здесь они выступают якорем для подписок.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncUserRequest представляет запрос на синхронизацию пользователя
type SyncUserRequest struct {
	ID    string `json:"id,omitempty" binding:"omitempty,uuid4"`
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}
