package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/metrics"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/repository"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// fakeProvider тестовый двойник платежного провайдера
type fakeProvider struct {
	customerCalls     int
	subscriptionCalls int
	cancelled         []string
	cancelErr         error
	lastTrialEnd      time.Time
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, email, paymentMethodID string) (string, error) {
	f.customerCalls++
	return "cus_test_123", nil
}

func (f *fakeProvider) CreateSubscription(ctx context.Context, customerID string, tier domain.SubscriptionTier, frequency domain.PaymentFrequency, trialEnd time.Time) (string, error) {
	f.subscriptionCalls++
	f.lastTrialEnd = trialEnd
	return "sub_test_456", nil
}

func (f *fakeProvider) CancelSubscription(ctx context.Context, providerRef string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, providerRef)
	return nil
}

// recordingProducer записывает опубликованные события
type recordingProducer struct {
	topics []string
}

func (p *recordingProducer) PublishSubscriptionEvent(ctx context.Context, topic string, subscription domain.Subscription) error {
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

type testEnv struct {
	svc      SubscriptionService
	subRepo  *repository.InMemorySubscriptionRepository
	userRepo *repository.InMemoryUserRepository
	provider *fakeProvider
	producer *recordingProducer
	user     domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.New(logger.ERROR)
	userRepo := repository.NewInMemoryUserRepository(log)
	subRepo := repository.NewInMemorySubscriptionRepository(userRepo, log)
	provider := &fakeProvider{}
	producer := &recordingProducer{}

	user := domain.User{
		ID:               uuid.New(),
		Email:            "owner@example.com",
		SubscriptionTier: domain.SubscriptionTierNone,
	}
	userRepo.Put(user)

	svc := NewSubscriptionService(subRepo, userRepo, provider, producer, metrics.NoOpSubscriptionMetrics{}, log)

	return &testEnv{
		svc:      svc,
		subRepo:  subRepo,
		userRepo: userRepo,
		provider: provider,
		producer: producer,
		user:     user,
	}
}

func stripeRequest(env *testEnv, tier, frequency string) domain.SubscriptionRequest {
	return domain.SubscriptionRequest{
		UserID:                env.user.ID.String(),
		Tier:                  tier,
		PaymentMethod:         "stripe",
		PaymentFrequency:      frequency,
		StripePaymentMethodID: "pm_test_789",
	}
}

func directDebitRequest(env *testEnv, tier, frequency string) domain.SubscriptionRequest {
	return domain.SubscriptionRequest{
		UserID:           env.user.ID.String(),
		Tier:             tier,
		PaymentMethod:    "direct_debit",
		PaymentFrequency: frequency,
		BankDetails: &domain.BankDetails{
			AccountName:   "Acme Trading Ltd",
			SortCode:      "20-00-00",
			AccountNumber: "55779911",
		},
	}
}

func TestStart_TrialEndIsThirtyDaysFromStart(t *testing.T) {
	env := newTestEnv(t)

	sub, err := env.svc.Start(context.Background(), stripeRequest(env, "business", "monthly"))
	require.NoError(t, err)

	assert.Equal(t, sub.StartDate.AddDate(0, 0, 30), sub.TrialEndDate)
	assert.Equal(t, domain.SubscriptionStatusTrial, sub.Status)
	assert.True(t, sub.AutoRenew)
}

func TestStart_Pricing(t *testing.T) {
	env := newTestEnv(t)

	monthly, err := env.svc.Start(context.Background(), stripeRequest(env, "business", "monthly"))
	require.NoError(t, err)
	assert.Equal(t, int64(2999), monthly.Price)

	env = newTestEnv(t)
	annual, err := env.svc.Start(context.Background(), stripeRequest(env, "business", "annual"))
	require.NoError(t, err)
	assert.Equal(t, int64(32389), annual.Price)
}

func TestStart_StripeRegistersProviderSubscriptionWithTrial(t *testing.T) {
	env := newTestEnv(t)

	sub, err := env.svc.Start(context.Background(), stripeRequest(env, "business", "monthly"))
	require.NoError(t, err)

	assert.Equal(t, 1, env.provider.customerCalls)
	assert.Equal(t, 1, env.provider.subscriptionCalls)
	assert.Equal(t, "cus_test_123", sub.StripeCustomerID)
	assert.Equal(t, "sub_test_456", sub.StripeSubscriptionID)
	assert.Equal(t, sub.TrialEndDate, env.provider.lastTrialEnd)
	assert.Nil(t, sub.BankDetails)
	assert.Empty(t, sub.MandateStatus)
}

func TestStart_MissingCardTokenFailsWithInvalidPaymentInput(t *testing.T) {
	env := newTestEnv(t)

	req := stripeRequest(env, "business", "monthly")
	req.StripePaymentMethodID = ""

	_, err := env.svc.Start(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentInput)
	assert.Zero(t, env.provider.customerCalls)
}

func TestStart_MissingBankDetailsFailsWithInvalidPaymentInput(t *testing.T) {
	env := newTestEnv(t)

	req := directDebitRequest(env, "vendor", "monthly")
	req.BankDetails = nil

	_, err := env.svc.Start(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentInput)
}

func TestStart_MismatchedPayloadFailsWithInvalidPaymentInput(t *testing.T) {
	env := newTestEnv(t)

	req := stripeRequest(env, "business", "monthly")
	req.BankDetails = &domain.BankDetails{AccountName: "x", SortCode: "y", AccountNumber: "z"}

	_, err := env.svc.Start(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentInput)
}

func TestStart_UnknownUserFailsWithNotFound(t *testing.T) {
	env := newTestEnv(t)

	req := stripeRequest(env, "business", "monthly")
	req.UserID = uuid.New().String()

	_, err := env.svc.Start(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStart_DirectDebitEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	sub, err := env.svc.Start(context.Background(), directDebitRequest(env, "vendor", "monthly"))
	require.NoError(t, err)

	assert.Equal(t, domain.SubscriptionStatusTrial, sub.Status)
	assert.Equal(t, domain.MandateStatusPending, sub.MandateStatus)
	require.NotNil(t, sub.BankDetails)
	assert.Empty(t, sub.StripeSubscriptionID)

	// Прямой дебет не ходит к провайдеру
	assert.Zero(t, env.provider.customerCalls)
	assert.Zero(t, env.provider.subscriptionCalls)

	// Зеркальные поля пользователя обновлены вместе с подпиской
	user, err := env.userRepo.GetByID(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.True(t, user.SubscriptionActive)
	assert.Equal(t, domain.SubscriptionTierVendor, user.SubscriptionTier)
	require.NotNil(t, user.SubscriptionEndsAt)
}

func TestStart_PublishesCreatedEvent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Start(context.Background(), stripeRequest(env, "business", "monthly"))
	require.NoError(t, err)

	assert.Equal(t, []string{"subscription_created"}, env.producer.topics)
}

func TestHandleTrialEnd_ActivatesTrial(t *testing.T) {
	env := newTestEnv(t)

	sub, err := env.svc.Start(context.Background(), directDebitRequest(env, "vendor", "monthly"))
	require.NoError(t, err)

	require.NoError(t, env.svc.HandleTrialEnd(context.Background(), sub.ID.String()))

	updated, err := env.subRepo.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusActive, updated.Status)

	user, err := env.userRepo.GetByID(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.True(t, user.SubscriptionActive)
}

func TestHandleTrialEnd_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	sub, err := env.svc.Start(context.Background(), directDebitRequest(env, "vendor", "monthly"))
	require.NoError(t, err)

	require.NoError(t, env.svc.HandleTrialEnd(context.Background(), sub.ID.String()))
	require.NoError(t, env.svc.HandleTrialEnd(context.Background(), sub.ID.String()))

	updated, err := env.subRepo.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusActive, updated.Status)

	// Повторный вызов не публикует второе событие активации
	activated := 0
	for _, topic := range env.producer.topics {
		if topic == "subscription_activated" {
			activated++
		}
	}
	assert.Equal(t, 1, activated)
}

func TestHandleTrialEnd_UnknownIDFailsWithNotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.HandleTrialEnd(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancel_UnknownIDFailsWithNotFoundAndNoWrites(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.Cancel(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Зеркальные поля пользователя не тронуты
	user, err := env.userRepo.GetByID(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.False(t, user.SubscriptionActive)
	assert.Empty(t, env.producer.topics)
}

func TestCancel_StripeCancelsProviderFirst(t *testing.T) {
	env := newTestEnv(t)

	sub, err := env.svc.Start(context.Background(), stripeRequest(env, "business", "monthly"))
	require.NoError(t, err)

	require.NoError(t, env.svc.Cancel(context.Background(), sub.ID.String()))

	assert.Equal(t, []string{"sub_test_456"}, env.provider.cancelled)

	updated, err := env.subRepo.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCancelled, updated.Status)
	assert.False(t, updated.AutoRenew)
	require.NotNil(t, updated.CancelledAt)

	user, err := env.userRepo.GetByID(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.False(t, user.SubscriptionActive)
	assert.Equal(t, domain.SubscriptionTierNone, user.SubscriptionTier)
}

func TestCancel_ProviderFailureLeavesLocalStateUntouched(t *testing.T) {
	env := newTestEnv(t)

	sub, err := env.svc.Start(context.Background(), stripeRequest(env, "business", "monthly"))
	require.NoError(t, err)

	env.provider.cancelErr = domain.NewExternalServiceError("stripe", "api_error", "boom", errors.New("boom"))

	err = env.svc.Cancel(context.Background(), sub.ID.String())
	assert.ErrorIs(t, err, domain.ErrExternalProvider)

	// Отмена все-или-ничего: локальный статус не изменился
	updated, err := env.subRepo.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusTrial, updated.Status)
	assert.True(t, updated.AutoRenew)

	user, err := env.userRepo.GetByID(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.True(t, user.SubscriptionActive)
}

func TestCancel_TrialCanBeCancelledDirectly(t *testing.T) {
	env := newTestEnv(t)

	sub, err := env.svc.Start(context.Background(), directDebitRequest(env, "vendor", "annual"))
	require.NoError(t, err)

	require.NoError(t, env.svc.Cancel(context.Background(), sub.ID.String()))

	updated, err := env.subRepo.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCancelled, updated.Status)
}

func TestCancel_AlreadyCancelledIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	sub, err := env.svc.Start(context.Background(), stripeRequest(env, "business", "monthly"))
	require.NoError(t, err)

	require.NoError(t, env.svc.Cancel(context.Background(), sub.ID.String()))
	require.NoError(t, env.svc.Cancel(context.Background(), sub.ID.String()))

	// Провайдер вызван только один раз
	assert.Len(t, env.provider.cancelled, 1)
}

func TestGetByUserID_ReturnsUserSubscriptions(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Start(context.Background(), stripeRequest(env, "business", "monthly"))
	require.NoError(t, err)

	subs, err := env.svc.GetByUserID(context.Background(), env.user.ID.String())
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestGetByUserID_UnknownUserFailsWithNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetByUserID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
