package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// CachedSubscriptionRepository реализует SubscriptionRepository с кэшированием
// чтений по ID. Записи всегда идут в основное хранилище, кэш инвалидируется.
type CachedSubscriptionRepository struct {
	repo  SubscriptionRepository
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedSubscriptionRepository создает новый репозиторий с кэшированием
func NewCachedSubscriptionRepository(
	repo SubscriptionRepository,
	cache *RedisCacheRepository,
	log *logger.Logger,
) SubscriptionRepository {
	return &CachedSubscriptionRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetByID возвращает подписку из кэша либо из основного хранилища
func (r *CachedSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Subscription, error) {
	subscription, err := r.cache.GetSubscription(ctx, id)
	if err == nil {
		return subscription, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.log.Warn("Cache read failed, falling back to store: %v", err)
	}

	subscription, err = r.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Subscription{}, err
	}

	if err := r.cache.CacheSubscription(ctx, subscription); err != nil {
		r.log.Warn("Failed to cache subscription %s: %v", subscription.ID, err)
	}

	return subscription, nil
}

// GetByUserID возвращает подписки пользователя из основного хранилища
func (r *CachedSubscriptionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error) {
	return r.repo.GetByUserID(ctx, userID)
}

// ListTrialsEndingBefore всегда читает основное хранилище:
// воркер пробных периодов не должен видеть устаревший статус.
func (r *CachedSubscriptionRepository) ListTrialsEndingBefore(ctx context.Context, deadline time.Time) ([]domain.Subscription, error) {
	return r.repo.ListTrialsEndingBefore(ctx, deadline)
}

// Create сохраняет подписку в основном хранилище и кэширует ее
func (r *CachedSubscriptionRepository) Create(ctx context.Context, subscription domain.Subscription, mirror domain.SubscriptionMirror) (domain.Subscription, error) {
	created, err := r.repo.Create(ctx, subscription, mirror)
	if err != nil {
		return domain.Subscription{}, err
	}

	if err := r.cache.CacheSubscription(ctx, created); err != nil {
		r.log.Warn("Failed to cache subscription after creation: %v", err)
	}

	return created, nil
}

// Update обновляет подписку в основном хранилище и инвалидирует кэш
func (r *CachedSubscriptionRepository) Update(ctx context.Context, subscription domain.Subscription, mirror domain.SubscriptionMirror) error {
	if err := r.repo.Update(ctx, subscription, mirror); err != nil {
		return err
	}

	if err := r.cache.InvalidateSubscription(ctx, subscription.ID); err != nil {
		r.log.Warn("Failed to invalidate cached subscription %s: %v", subscription.ID, err)
	}

	return nil
}
