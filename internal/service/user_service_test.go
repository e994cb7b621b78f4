package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/internal/repository"
	"github.com/nutrio/subscription-service/pkg/logger"
)

func TestUserService_Sync(t *testing.T) {
	ctx := context.Background()
	log := logger.New(logger.ERROR)

	t.Run("creates a user without an explicit id", func(t *testing.T) {
		svc := NewUserService(repository.NewInMemoryUserRepository(log), log)

		user, err := svc.Sync(ctx, domain.SyncUserRequest{Email: "athlete@example.com", Name: "Athlete"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "athlete@example.com", user.Email)
	})

	t.Run("keeps the id provided by the auth provider", func(t *testing.T) {
		svc := NewUserService(repository.NewInMemoryUserRepository(log), log)
		id := uuid.New()

		user, err := svc.Sync(ctx, domain.SyncUserRequest{ID: id.String(), Email: "athlete@example.com"})
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
	})

	t.Run("repeated sync updates the name in place", func(t *testing.T) {
		svc := NewUserService(repository.NewInMemoryUserRepository(log), log)

		first, err := svc.Sync(ctx, domain.SyncUserRequest{Email: "athlete@example.com", Name: "Athlete"})
		require.NoError(t, err)

		second, err := svc.Sync(ctx, domain.SyncUserRequest{Email: "athlete@example.com", Name: "Coach"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Coach", second.Name)
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		svc := NewUserService(repository.NewInMemoryUserRepository(log), log)

		_, err := svc.Sync(ctx, domain.SyncUserRequest{ID: "not-a-uuid", Email: "athlete@example.com"})
		assert.ErrorIs(t, err, repository.ErrInvalidData)
	})
}
