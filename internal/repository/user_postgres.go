package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// PostgresUserRepository читает записи пользователей из PostgreSQL.
// Зеркальные поля пишутся репозиторием подписок в общей транзакции.
type PostgresUserRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresUserRepository создает новый репозиторий пользователей через PostgreSQL
func NewPostgresUserRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:  db,
		log: log,
	}
}

// GetByID возвращает пользователя по ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	query := `
		SELECT
			id, email,
			subscription_active, subscription_tier, subscription_ends_at,
			created_at, updated_at
		FROM users
		WHERE id = $1`

	var user domain.User
	var tier *string

	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.SubscriptionActive,
		&tier,
		&user.SubscriptionEndsAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	if tier != nil {
		user.SubscriptionTier = domain.SubscriptionTier(*tier)
	} else {
		user.SubscriptionTier = domain.SubscriptionTierNone
	}

	return user, nil
}
