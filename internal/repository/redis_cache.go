package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

const (
	subscriptionKeyPrefix = "subscription:"

	// TTL для кэша
	defaultCacheTTL = 15 * time.Minute
)

// ErrCacheMiss запись отсутствует в кэше
var ErrCacheMiss = errors.New("cache miss")

// RedisCacheRepository кэш подписок на Redis
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository создает новый Redis-кэш и проверяет соединение
func NewRedisCacheRepository(addr, password string, db int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// CacheSubscription сохраняет подписку в кэше
func (r *RedisCacheRepository) CacheSubscription(ctx context.Context, subscription domain.Subscription) error {
	data, err := json.Marshal(subscription)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription for cache: %w", err)
	}

	key := subscriptionKeyPrefix + subscription.ID.String()
	if err := r.client.Set(ctx, key, data, defaultCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache subscription: %w", err)
	}

	return nil
}

// GetSubscription возвращает подписку из кэша
func (r *RedisCacheRepository) GetSubscription(ctx context.Context, id uuid.UUID) (domain.Subscription, error) {
	key := subscriptionKeyPrefix + id.String()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Subscription{}, ErrCacheMiss
		}
		return domain.Subscription{}, fmt.Errorf("failed to get subscription from cache: %w", err)
	}

	var subscription domain.Subscription
	if err := json.Unmarshal(data, &subscription); err != nil {
		return domain.Subscription{}, fmt.Errorf("failed to unmarshal cached subscription: %w", err)
	}

	return subscription, nil
}

// InvalidateSubscription удаляет подписку из кэша
func (r *RedisCacheRepository) InvalidateSubscription(ctx context.Context, id uuid.UUID) error {
	key := subscriptionKeyPrefix + id.String()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached subscription: %w", err)
	}

	return nil
}

// Close закрывает соединение с Redis
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}
