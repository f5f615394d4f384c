package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

func newMemoryRepos(t *testing.T) (*InMemorySubscriptionRepository, *InMemoryUserRepository, domain.User) {
	t.Helper()

	log := logger.New(logger.ERROR)
	users := NewInMemoryUserRepository(log)
	subs := NewInMemorySubscriptionRepository(users, log)

	user := domain.User{
		ID:               uuid.New(),
		Email:            "member@example.com",
		SubscriptionTier: domain.SubscriptionTierNone,
	}
	users.Put(user)

	return subs, users, user
}

func testSubscription(userID uuid.UUID, status domain.SubscriptionStatus, trialEnd time.Time) domain.Subscription {
	start := trialEnd.AddDate(0, 0, -domain.TrialPeriodDays)
	return domain.Subscription{
		ID:               uuid.New(),
		UserID:           userID,
		Tier:             domain.SubscriptionTierBusiness,
		Status:           status,
		PaymentMethod:    domain.PaymentMethodDirectDebit,
		PaymentFrequency: domain.PaymentFrequencyMonthly,
		StartDate:        start,
		TrialEndDate:     trialEnd,
		EndDate:          domain.EndDateFor(trialEnd, domain.PaymentFrequencyMonthly),
		Price:            domain.PriceFor(domain.SubscriptionTierBusiness, domain.PaymentFrequencyMonthly),
		MandateStatus:    domain.MandateStatusPending,
		AutoRenew:        true,
	}
}

func TestCreate_WritesSubscriptionAndMirrorTogether(t *testing.T) {
	subs, users, user := newMemoryRepos(t)
	ctx := context.Background()

	sub := testSubscription(user.ID, domain.SubscriptionStatusTrial, time.Now().AddDate(0, 0, 30))

	created, err := subs.Create(ctx, sub, sub.Mirror())
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	stored, err := subs.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusTrial, stored.Status)

	mirrored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, mirrored.SubscriptionActive)
	assert.Equal(t, domain.SubscriptionTierBusiness, mirrored.SubscriptionTier)
}

func TestCreate_UnknownUserFailsAndStoresNothing(t *testing.T) {
	subs, _, _ := newMemoryRepos(t)
	ctx := context.Background()

	sub := testSubscription(uuid.New(), domain.SubscriptionStatusTrial, time.Now().AddDate(0, 0, 30))

	_, err := subs.Create(ctx, sub, sub.Mirror())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = subs.GetByID(ctx, sub.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_UnknownSubscriptionFails(t *testing.T) {
	subs, _, user := newMemoryRepos(t)
	ctx := context.Background()

	sub := testSubscription(user.ID, domain.SubscriptionStatusTrial, time.Now())

	err := subs.Update(ctx, sub, sub.Mirror())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTrialsEndingBefore(t *testing.T) {
	subs, _, user := newMemoryRepos(t)
	ctx := context.Background()

	now := time.Now()

	expired := testSubscription(user.ID, domain.SubscriptionStatusTrial, now.Add(-time.Hour))
	pending := testSubscription(user.ID, domain.SubscriptionStatusTrial, now.Add(24*time.Hour))
	active := testSubscription(user.ID, domain.SubscriptionStatusActive, now.Add(-time.Hour))

	for _, s := range []domain.Subscription{expired, pending, active} {
		_, err := subs.Create(ctx, s, s.Mirror())
		require.NoError(t, err)
	}

	due, err := subs.ListTrialsEndingBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, expired.ID, due[0].ID)
}

func TestGetByUserID_FiltersByOwner(t *testing.T) {
	subs, users, user := newMemoryRepos(t)
	ctx := context.Background()

	other := domain.User{ID: uuid.New(), Email: "other@example.com"}
	users.Put(other)

	mine := testSubscription(user.ID, domain.SubscriptionStatusTrial, time.Now())
	theirs := testSubscription(other.ID, domain.SubscriptionStatusTrial, time.Now())

	for _, s := range []domain.Subscription{mine, theirs} {
		_, err := subs.Create(ctx, s, s.Mirror())
		require.NoError(t, err)
	}

	result, err := subs.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, mine.ID, result[0].ID)
}
