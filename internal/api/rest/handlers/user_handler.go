package handlers

import (
	"errors"
	"net/http"

	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/internal/repository"
	"github.com/nutrio/subscription-service/internal/service"
	"github.com/nutrio/subscription-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// UserHandler обработчик для пользователей
type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(svc service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		log:     log,
	}
}

// SyncUser создает или обновляет пользователя по данным провайдера аутентификации
func (h *UserHandler) SyncUser(c *gin.Context) {
	var req domain.SyncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid sync user request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Sync(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidData) {
			h.log.Warn("Invalid user ID format: %s", req.ID)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
			return
		}

		h.log.Error("Failed to sync user %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync user"})
		return
	}

	h.log.Info("Synced user %s", user.Email)
	c.JSON(http.StatusOK, user)
}
