package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceFor(t *testing.T) {
	tests := []struct {
		name      string
		tier      SubscriptionTier
		frequency PaymentFrequency
		want      int64
	}{
		{"business monthly", SubscriptionTierBusiness, PaymentFrequencyMonthly, 2999},
		{"business annual", SubscriptionTierBusiness, PaymentFrequencyAnnual, 32389},
		{"vendor monthly", SubscriptionTierVendor, PaymentFrequencyMonthly, 4999},
		{"vendor annual", SubscriptionTierVendor, PaymentFrequencyAnnual, 53989},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceFor(tt.tier, tt.frequency))
		})
	}
}

func TestPriceFor_AnnualDiscountIsFloored(t *testing.T) {
	// 2999 * 12 * 0.9 = 32389.2 -> 32389
	assert.Equal(t, int64(32389), PriceFor(SubscriptionTierBusiness, PaymentFrequencyAnnual))
	// 4999 * 12 * 0.9 = 53989.2 -> 53989
	assert.Equal(t, int64(53989), PriceFor(SubscriptionTierVendor, PaymentFrequencyAnnual))
}

func TestTrialEndFor(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 31, 12, 30, 0, 0, time.UTC), TrialEndFor(start))
}

func TestEndDateFor(t *testing.T) {
	trialEnd := time.Date(2025, 3, 15, 12, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 4, 15, 12, 30, 0, 0, time.UTC), EndDateFor(trialEnd, PaymentFrequencyMonthly))
	assert.Equal(t, time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC), EndDateFor(trialEnd, PaymentFrequencyAnnual))
}

func TestValidTier(t *testing.T) {
	assert.True(t, ValidTier(SubscriptionTierBusiness))
	assert.True(t, ValidTier(SubscriptionTierVendor))
	assert.False(t, ValidTier(SubscriptionTierNone))
	assert.False(t, ValidTier(SubscriptionTier("enterprise")))
}

func TestMirror_ActiveSubscription(t *testing.T) {
	endDate := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	sub := Subscription{
		Tier:    SubscriptionTierBusiness,
		Status:  SubscriptionStatusTrial,
		EndDate: endDate,
	}

	mirror := sub.Mirror()
	assert.True(t, mirror.Active)
	assert.Equal(t, SubscriptionTierBusiness, mirror.Tier)
	require.NotNil(t, mirror.EndsAt)
	assert.Equal(t, endDate, *mirror.EndsAt)
}

func TestMirror_CancelledSubscription(t *testing.T) {
	sub := Subscription{
		Tier:   SubscriptionTierVendor,
		Status: SubscriptionStatusCancelled,
	}

	mirror := sub.Mirror()
	assert.False(t, mirror.Active)
	assert.Equal(t, SubscriptionTierNone, mirror.Tier)
	assert.Nil(t, mirror.EndsAt)
}
