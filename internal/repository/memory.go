package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// InMemoryUserRepository реализация репозитория пользователей в памяти
type InMemoryUserRepository struct {
	users map[uuid.UUID]domain.User
	mutex sync.RWMutex
	log   *logger.Logger
}

// NewInMemoryUserRepository создает новый репозиторий пользователей в памяти
func NewInMemoryUserRepository(log *logger.Logger) *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[uuid.UUID]domain.User),
		log:   log,
	}
}

// GetByID возвращает пользователя по ID
func (r *InMemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return domain.User{}, ErrNotFound
	}

	return user, nil
}

// Put сохраняет пользователя (для наполнения хранилища)
func (r *InMemoryUserRepository) Put(user domain.User) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.users[user.ID] = user
}

// applyMirror записывает зеркальные поля подписки на запись пользователя
func (r *InMemoryUserRepository) applyMirror(userID uuid.UUID, mirror domain.SubscriptionMirror) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return ErrNotFound
	}

	user.SubscriptionActive = mirror.Active
	user.SubscriptionTier = mirror.Tier
	user.SubscriptionEndsAt = mirror.EndsAt
	user.UpdatedAt = time.Now()
	r.users[userID] = user

	return nil
}

// InMemorySubscriptionRepository реализация репозитория подписок в памяти.
// Делит хранилище пользователей с InMemoryUserRepository, чтобы парная запись
// подписки и зеркальных полей вела себя как одна транзакция.
type InMemorySubscriptionRepository struct {
	subscriptions map[uuid.UUID]domain.Subscription
	users         *InMemoryUserRepository
	mutex         sync.RWMutex
	log           *logger.Logger
}

// NewInMemorySubscriptionRepository создает новый репозиторий подписок в памяти
func NewInMemorySubscriptionRepository(users *InMemoryUserRepository, log *logger.Logger) *InMemorySubscriptionRepository {
	return &InMemorySubscriptionRepository{
		subscriptions: make(map[uuid.UUID]domain.Subscription),
		users:         users,
		log:           log,
	}
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

// GetByUserID возвращает подписки пользователя
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

// ListTrialsEndingBefore возвращает подписки в пробном периоде,
// у которых пробный период заканчивается до указанного момента.
func (r *InMemorySubscriptionRepository) ListTrialsEndingBefore(ctx context.Context, deadline time.Time) ([]domain.Subscription, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var subscriptions []domain.Subscription
	for _, subscription := range r.subscriptions {
		if subscription.Status == domain.SubscriptionStatusTrial && !subscription.TrialEndDate.After(deadline) {
			subscriptions = append(subscriptions, subscription)
		}
	}

	return subscriptions, nil
}

// Create сохраняет новую подписку и зеркальные поля пользователя
func (r *InMemorySubscriptionRepository) Create(ctx context.Context, subscription domain.Subscription, mirror domain.SubscriptionMirror) (domain.Subscription, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Пользователь должен существовать до записи подписки
	if err := r.users.applyMirror(subscription.UserID, mirror); err != nil {
		return domain.Subscription{}, err
	}

	now := time.Now()
	subscription.CreatedAt = now
	subscription.UpdatedAt = now
	r.subscriptions[subscription.ID] = subscription

	return subscription, nil
}

// Update обновляет подписку и зеркальные поля пользователя
func (r *InMemorySubscriptionRepository) Update(ctx context.Context, subscription domain.Subscription, mirror domain.SubscriptionMirror) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.subscriptions[subscription.ID]; !exists {
		return ErrNotFound
	}

	if err := r.users.applyMirror(subscription.UserID, mirror); err != nil {
		return err
	}

	subscription.UpdatedAt = time.Now()
	r.subscriptions[subscription.ID] = subscription

	return nil
}
