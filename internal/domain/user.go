package domain

import (
	"time"

	"github.com/google/uuid"
)

// User представляет владельца подписки. Сервис подписок не управляет
// аккаунтами, но поддерживает зеркальные поля подписки на записи пользователя.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`

	// Зеркальные поля подписки, обновляются атомарно с переходами подписки
	SubscriptionActive bool             `json:"subscription_active"`
	SubscriptionTier   SubscriptionTier `json:"subscription_tier"`
	SubscriptionEndsAt *time.Time       `json:"subscription_ends_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
