package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
)

// SubscriptionRepository интерфейс хранилища подписок. Методы записи
// принимают зеркальные поля пользователя и применяют обе записи
// в одной логической транзакции.
type SubscriptionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Subscription, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error)
	ListTrialsEndingBefore(ctx context.Context, deadline time.Time) ([]domain.Subscription, error)
	Create(ctx context.Context, subscription domain.Subscription, mirror domain.SubscriptionMirror) (domain.Subscription, error)
	Update(ctx context.Context, subscription domain.Subscription, mirror domain.SubscriptionMirror) error
}

// UserRepository интерфейс хранилища пользователей
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}
