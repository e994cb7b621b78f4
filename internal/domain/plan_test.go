package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrio/subscription-service/internal/domain"
)

func TestPlanByID(t *testing.T) {
	t.Run("six month plan", func(t *testing.T) {
		plan, err := domain.PlanByID(domain.PlanSixMonth)
		require.NoError(t, err)
		assert.Equal(t, int64(11000), plan.AmountMinorUnits)
		assert.Equal(t, "INR", plan.Currency)
		assert.Equal(t, 6, plan.DurationMonths)
	})

	t.Run("one year plan", func(t *testing.T) {
		plan, err := domain.PlanByID(domain.PlanOneYear)
		require.NoError(t, err)
		assert.Equal(t, int64(19900), plan.AmountMinorUnits)
		assert.Equal(t, "INR", plan.Currency)
		assert.Equal(t, 12, plan.DurationMonths)
	})

	t.Run("unknown plan is rejected", func(t *testing.T) {
		_, err := domain.PlanByID("weekly")
		assert.ErrorIs(t, err, domain.ErrInvalidPlan)
	})

	t.Run("empty plan id is rejected", func(t *testing.T) {
		_, err := domain.PlanByID("")
		assert.ErrorIs(t, err, domain.ErrInvalidPlan)
	})
}

func TestPlan_PeriodEnd(t *testing.T) {
	start := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	sixMonth, err := domain.PlanByID(domain.PlanSixMonth)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC), sixMonth.PeriodEnd(start))

	oneYear, err := domain.PlanByID(domain.PlanOneYear)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), oneYear.PeriodEnd(start))
}

func TestAllPlans(t *testing.T) {
	plans := domain.AllPlans()
	assert.Len(t, plans, 2)
}

func TestSubscription_ActiveAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 3, 0)
	past := now.AddDate(0, -1, 0)

	t.Run("success with a future end date is active", func(t *testing.T) {
		sub := domain.Subscription{
			Status:   domain.SubscriptionStatusSuccess,
			IsActive: true,
			EndDate:  &future,
		}
		assert.True(t, sub.ActiveAt(now))
	})

	t.Run("pending is never active", func(t *testing.T) {
		sub := domain.Subscription{
			Status:   domain.SubscriptionStatusPending,
			IsActive: true,
			EndDate:  &future,
		}
		assert.False(t, sub.ActiveAt(now))
	})

	t.Run("cleared flag deactivates even before the end date", func(t *testing.T) {
		sub := domain.Subscription{
			Status:   domain.SubscriptionStatusSuccess,
			IsActive: false,
			EndDate:  &future,
		}
		assert.False(t, sub.ActiveAt(now))
	})

	t.Run("expired end date deactivates", func(t *testing.T) {
		sub := domain.Subscription{
			Status:   domain.SubscriptionStatusSuccess,
			IsActive: true,
			EndDate:  &past,
		}
		assert.False(t, sub.ActiveAt(now))
	})

	t.Run("end date equal to now is already expired", func(t *testing.T) {
		end := now
		sub := domain.Subscription{
			Status:   domain.SubscriptionStatusSuccess,
			IsActive: true,
			EndDate:  &end,
		}
		assert.False(t, sub.ActiveAt(now))
	})

	t.Run("missing end date is never active", func(t *testing.T) {
		sub := domain.Subscription{
			Status:   domain.SubscriptionStatusSuccess,
			IsActive: true,
		}
		assert.False(t, sub.ActiveAt(now))
	})
}
