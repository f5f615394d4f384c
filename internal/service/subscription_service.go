package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/kafka"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/metrics"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/repository"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// SubscriptionService интерфейс сервиса жизненного цикла подписок
type SubscriptionService interface {
	Start(ctx context.Context, req domain.SubscriptionRequest) (domain.Subscription, error)
	HandleTrialEnd(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (domain.Subscription, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.Subscription, error)
}

// PaymentProvider интерфейс внешнего платежного провайдера.
// Вызовы синхронные, без ретраев: ошибка провайдера поднимается вызывающему.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, email, paymentMethodID string) (string, error)
	CreateSubscription(ctx context.Context, customerID string, tier domain.SubscriptionTier, frequency domain.PaymentFrequency, trialEnd time.Time) (string, error)
	CancelSubscription(ctx context.Context, providerRef string) error
}

type subscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
	provider         PaymentProvider
	producer         kafka.Producer
	metrics          metrics.SubscriptionMetrics
	log              *logger.Logger
}

// NewSubscriptionService создает новый сервис жизненного цикла подписок
func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	provider PaymentProvider,
	producer kafka.Producer,
	m metrics.SubscriptionMetrics,
	log *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		provider:         provider,
		producer:         producer,
		metrics:          m,
		log:              log,
	}
}

// Start создает новую подписку в пробном периоде.
// Для карточных подписок регистрирует клиента и подписку у провайдера,
// для прямого дебета записывает мандат в статусе pending без внешнего вызова.
// Подписка и зеркальные поля пользователя пишутся в одной транзакции.
func (s *subscriptionService) Start(ctx context.Context, req domain.SubscriptionRequest) (domain.Subscription, error) {
	s.log.Debug("Starting subscription for user: %s, tier: %s", req.UserID, req.Tier)

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		s.log.Warn("Invalid UUID format for user ID: %s", req.UserID)
		return domain.Subscription{}, repository.ErrInvalidData
	}

	tier := domain.SubscriptionTier(req.Tier)
	if !domain.ValidTier(tier) {
		s.log.Warn("Unknown subscription tier: %s", req.Tier)
		return domain.Subscription{}, domain.ErrInvalidOperation
	}

	frequency := domain.PaymentFrequency(req.PaymentFrequency)
	if frequency != domain.PaymentFrequencyMonthly && frequency != domain.PaymentFrequencyAnnual {
		s.log.Warn("Unknown payment frequency: %s", req.PaymentFrequency)
		return domain.Subscription{}, domain.ErrInvalidOperation
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if err := validatePaymentPayload(method, req); err != nil {
		s.log.Warn("Payment payload does not match method: %v", err)
		return domain.Subscription{}, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("User not found: %s", req.UserID)
			return domain.Subscription{}, domain.NewNotFoundError("user", req.UserID)
		}
		s.log.Error("Error fetching user: %v", err)
		return domain.Subscription{}, err
	}

	now := time.Now()
	trialEnd := domain.TrialEndFor(now)

	subscription := domain.Subscription{
		ID:               uuid.New(),
		UserID:           userID,
		Tier:             tier,
		Status:           domain.SubscriptionStatusTrial,
		PaymentMethod:    method,
		PaymentFrequency: frequency,
		StartDate:        now,
		TrialEndDate:     trialEnd,
		EndDate:          domain.EndDateFor(trialEnd, frequency),
		Price:            domain.PriceFor(tier, frequency),
		AutoRenew:        true,
	}

	switch method {
	case domain.PaymentMethodStripe:
		email := req.Email
		if email == "" {
			email = user.Email
		}

		customerID, err := s.provider.CreateCustomer(ctx, email, req.StripePaymentMethodID)
		if err != nil {
			s.log.Error("Failed to create provider customer: %v", err)
			return domain.Subscription{}, err
		}

		providerRef, err := s.provider.CreateSubscription(ctx, customerID, tier, frequency, trialEnd)
		if err != nil {
			s.log.Error("Failed to create provider subscription: %v", err)
			return domain.Subscription{}, err
		}

		subscription.StripeCustomerID = customerID
		subscription.StripeSubscriptionID = providerRef

	case domain.PaymentMethodDirectDebit:
		// Мандат записывается локально, первая коллекция инициируется
		// после окончания пробного периода
		subscription.BankDetails = req.BankDetails
		subscription.MandateStatus = domain.MandateStatusPending
	}

	created, err := s.subscriptionRepo.Create(ctx, subscription, subscription.Mirror())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Subscription{}, domain.NewNotFoundError("user", req.UserID)
		}
		s.log.Error("Failed to create subscription: %v", err)
		return domain.Subscription{}, err
	}

	s.metrics.IncSubscriptionStarted(string(tier), string(method))
	s.metrics.ObserveSubscriptionPrice(created.Price, string(tier), string(frequency))
	s.publishEvent(ctx, kafka.TopicSubscriptionCreated, created)

	s.log.Info("Started subscription %s for user %s (tier: %s, method: %s)", created.ID, userID, tier, method)
	return created, nil
}

// HandleTrialEnd переводит подписку из пробного периода в активный статус.
// Для любого статуса кроме trial вызов не имеет эффекта: это защита
// от дублирующихся срабатываний триггера окончания пробного периода.
func (s *subscriptionService) HandleTrialEnd(ctx context.Context, id string) error {
	s.log.Debug("Handling trial end for subscription: %s", id)

	subscriptionID, err := uuid.Parse(id)
	if err != nil {
		s.log.Warn("Invalid UUID format: %s", id)
		return repository.ErrInvalidData
	}

	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewNotFoundError("subscription", id)
		}
		s.log.Error("Error fetching subscription: %v", err)
		return err
	}

	if subscription.Status != domain.SubscriptionStatusTrial {
		s.log.Debug("Subscription %s is not in trial (status: %s), skipping", id, subscription.Status)
		return nil
	}

	subscription.Status = domain.SubscriptionStatusActive

	if subscription.PaymentMethod == domain.PaymentMethodDirectDebit {
		// Точка запуска первой коллекции по мандату; сам запрос в платежную
		// систему прямого дебета пока не подключен. Для карточных подписок
		// провайдер продолжает списания сам, локально только зеркалим статус.
		s.log.Info("Direct debit first collection due for subscription %s (mandate: %s)", id, subscription.MandateStatus)
	}

	if err := s.subscriptionRepo.Update(ctx, subscription, subscription.Mirror()); err != nil {
		s.log.Error("Failed to update subscription: %v", err)
		return err
	}

	s.metrics.IncSubscriptionActivated(string(subscription.Tier))
	s.publishEvent(ctx, kafka.TopicSubscriptionActivated, subscription)

	s.log.Info("Activated subscription %s after trial end", id)
	return nil
}

// Cancel отменяет подписку. Для карточных подписок сначала отменяется
// подписка у провайдера: при ошибке провайдера локальное состояние
// не меняется, отмена либо проходит целиком, либо не проходит вовсе.
func (s *subscriptionService) Cancel(ctx context.Context, id string) error {
	s.log.Debug("Cancelling subscription: %s", id)

	subscriptionID, err := uuid.Parse(id)
	if err != nil {
		s.log.Warn("Invalid UUID format: %s", id)
		return repository.ErrInvalidData
	}

	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewNotFoundError("subscription", id)
		}
		s.log.Error("Error fetching subscription: %v", err)
		return err
	}

	if subscription.Status == domain.SubscriptionStatusCancelled {
		// Уже отменена
		return nil
	}

	if subscription.PaymentMethod == domain.PaymentMethodStripe && subscription.StripeSubscriptionID != "" {
		if err := s.provider.CancelSubscription(ctx, subscription.StripeSubscriptionID); err != nil {
			s.log.Error("Provider cancel failed for subscription %s: %v", id, err)
			return err
		}
	}

	now := time.Now()
	subscription.Status = domain.SubscriptionStatusCancelled
	subscription.AutoRenew = false
	subscription.CancelledAt = &now

	if err := s.subscriptionRepo.Update(ctx, subscription, subscription.Mirror()); err != nil {
		s.log.Error("Failed to update subscription after provider cancel: %v", err)
		return err
	}

	s.metrics.IncSubscriptionCancelled(string(subscription.Tier))
	s.publishEvent(ctx, kafka.TopicSubscriptionCancelled, subscription)

	s.log.Info("Cancelled subscription %s", id)
	return nil
}

// GetByID возвращает подписку по ID
func (s *subscriptionService) GetByID(ctx context.Context, id string) (domain.Subscription, error) {
	subscriptionID, err := uuid.Parse(id)
	if err != nil {
		s.log.Warn("Invalid UUID format: %s", id)
		return domain.Subscription{}, repository.ErrInvalidData
	}

	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Subscription{}, domain.NewNotFoundError("subscription", id)
		}
		s.log.Error("Error fetching subscription: %v", err)
		return domain.Subscription{}, err
	}

	return subscription, nil
}

// GetByUserID возвращает подписки пользователя
func (s *subscriptionService) GetByUserID(ctx context.Context, userID string) ([]domain.Subscription, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		s.log.Warn("Invalid UUID format for user ID: %s", userID)
		return nil, repository.ErrInvalidData
	}

	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFoundError("user", userID)
		}
		s.log.Error("Error fetching user: %v", err)
		return nil, err
	}

	subscriptions, err := s.subscriptionRepo.GetByUserID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get subscriptions for user: %v", err)
		return nil, err
	}

	return subscriptions, nil
}

// publishEvent отправляет событие жизненного цикла в Kafka.
// Ошибка публикации логируется и не прерывает основную операцию.
func (s *subscriptionService) publishEvent(ctx context.Context, topic string, subscription domain.Subscription) {
	if err := s.producer.PublishSubscriptionEvent(ctx, topic, subscription); err != nil {
		s.log.Warn("Failed to publish %s event for subscription %s: %v", topic, subscription.ID, err)
	}
}

// validatePaymentPayload проверяет, что платежные данные соответствуют
// выбранному способу оплаты: ровно одна ветка и именно та, что требуется.
func validatePaymentPayload(method domain.PaymentMethod, req domain.SubscriptionRequest) error {
	switch method {
	case domain.PaymentMethodStripe:
		if req.StripePaymentMethodID == "" {
			return domain.NewPaymentInputError(method, "stripe_payment_method_id", "card payment method token is required")
		}
		if req.BankDetails != nil {
			return domain.NewPaymentInputError(method, "bank_details", "bank details must not be supplied for card payments")
		}
	case domain.PaymentMethodDirectDebit:
		if req.BankDetails == nil {
			return domain.NewPaymentInputError(method, "bank_details", "bank details are required")
		}
		if req.BankDetails.AccountName == "" || req.BankDetails.SortCode == "" || req.BankDetails.AccountNumber == "" {
			return domain.NewPaymentInputError(method, "bank_details", "account name, sort code and account number are required")
		}
		if req.StripePaymentMethodID != "" {
			return domain.NewPaymentInputError(method, "stripe_payment_method_id", "card token must not be supplied for direct debit")
		}
	default:
		return domain.NewPaymentInputError(method, "payment_method", "unsupported payment method")
	}

	return nil
}
