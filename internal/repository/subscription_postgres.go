package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

const subscriptionColumns = `
	id, user_id, tier, status, payment_method, payment_frequency,
	start_date, trial_end_date, end_date, price,
	stripe_customer_id, stripe_subscription_id,
	bank_account_name, bank_sort_code, bank_account_number, mandate_status,
	auto_renew, cancelled_at, created_at, updated_at`

// PostgresSubscriptionRepository реализация репозитория подписок через PostgreSQL.
// Запись подписки и зеркальных полей пользователя выполняется в одной транзакции.
type PostgresSubscriptionRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresSubscriptionRepository создает новый репозиторий подписок через PostgreSQL
func NewPostgresSubscriptionRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{
		db:  db,
		log: log,
	}
}

// GetByID возвращает подписку по ID
func (r *PostgresSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Subscription, error) {
	query := `SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	subscription, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscription{}, ErrNotFound
		}
		return domain.Subscription{}, fmt.Errorf("failed to get subscription: %w", err)
	}

	return subscription, nil
}

// GetByUserID возвращает подписки пользователя, новые первыми
func (r *PostgresSubscriptionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error) {
	query := `SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []domain.Subscription
	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, subscription)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subscriptions, nil
}

// ListTrialsEndingBefore возвращает подписки в пробном периоде,
// у которых пробный период заканчивается до указанного момента.
func (r *PostgresSubscriptionRepository) ListTrialsEndingBefore(ctx context.Context, deadline time.Time) ([]domain.Subscription, error) {
	query := `SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = $1 AND trial_end_date <= $2
		ORDER BY trial_end_date`

	rows, err := r.db.Query(ctx, query, domain.SubscriptionStatusTrial, deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring trials: %w", err)
	}
	defer rows.Close()

	var subscriptions []domain.Subscription
	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, subscription)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expiring trials: %w", err)
	}

	return subscriptions, nil
}

// Create сохраняет новую подписку и зеркальные поля пользователя
// в одной транзакции.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, subscription domain.Subscription, mirror domain.SubscriptionMirror) (domain.Subscription, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
		RETURNING created_at, updated_at`

	var bankAccountName, bankSortCode, bankAccountNumber *string
	if subscription.BankDetails != nil {
		bankAccountName = &subscription.BankDetails.AccountName
		bankSortCode = &subscription.BankDetails.SortCode
		bankAccountNumber = &subscription.BankDetails.AccountNumber
	}

	var mandateStatus *string
	if subscription.MandateStatus != "" {
		s := string(subscription.MandateStatus)
		mandateStatus = &s
	}

	now := time.Now()
	err = tx.QueryRow(
		ctx,
		query,
		subscription.ID,
		subscription.UserID,
		subscription.Tier,
		subscription.Status,
		subscription.PaymentMethod,
		subscription.PaymentFrequency,
		subscription.StartDate,
		subscription.TrialEndDate,
		subscription.EndDate,
		subscription.Price,
		nullableString(subscription.StripeCustomerID),
		nullableString(subscription.StripeSubscriptionID),
		bankAccountName,
		bankSortCode,
		bankAccountNumber,
		mandateStatus,
		subscription.AutoRenew,
		subscription.CancelledAt,
		now,
		now,
	).Scan(&subscription.CreatedAt, &subscription.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// Нарушение внешнего ключа: пользователь не существует
			if pgErr.Code == "23503" {
				return domain.Subscription{}, ErrNotFound
			}
			if pgErr.Code == "23505" {
				return domain.Subscription{}, ErrDuplicate
			}
		}
		return domain.Subscription{}, fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := updateUserMirror(ctx, tx, subscription.UserID, mirror); err != nil {
		return domain.Subscription{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Subscription{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return subscription, nil
}

// Update обновляет подписку и зеркальные поля пользователя в одной транзакции
func (r *PostgresSubscriptionRepository) Update(ctx context.Context, subscription domain.Subscription, mirror domain.SubscriptionMirror) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE subscriptions
		SET
			status = $1,
			end_date = $2,
			auto_renew = $3,
			mandate_status = $4,
			cancelled_at = $5,
			updated_at = $6
		WHERE id = $7`

	var mandateStatus *string
	if subscription.MandateStatus != "" {
		s := string(subscription.MandateStatus)
		mandateStatus = &s
	}

	result, err := tx.Exec(
		ctx,
		query,
		subscription.Status,
		subscription.EndDate,
		subscription.AutoRenew,
		mandateStatus,
		subscription.CancelledAt,
		time.Now(),
		subscription.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := updateUserMirror(ctx, tx, subscription.UserID, mirror); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// updateUserMirror записывает зеркальные поля подписки на запись пользователя
func updateUserMirror(ctx context.Context, tx pgx.Tx, userID uuid.UUID, mirror domain.SubscriptionMirror) error {
	query := `
		UPDATE users
		SET
			subscription_active = $1,
			subscription_tier = $2,
			subscription_ends_at = $3,
			updated_at = $4
		WHERE id = $5`

	result, err := tx.Exec(ctx, query, mirror.Active, mirror.Tier, mirror.EndsAt, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update user mirror fields: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// scanSubscription читает строку подписки в доменную модель
func scanSubscription(row pgx.Row) (domain.Subscription, error) {
	var subscription domain.Subscription
	var stripeCustomerID, stripeSubscriptionID *string
	var bankAccountName, bankSortCode, bankAccountNumber, mandateStatus *string

	err := row.Scan(
		&subscription.ID,
		&subscription.UserID,
		&subscription.Tier,
		&subscription.Status,
		&subscription.PaymentMethod,
		&subscription.PaymentFrequency,
		&subscription.StartDate,
		&subscription.TrialEndDate,
		&subscription.EndDate,
		&subscription.Price,
		&stripeCustomerID,
		&stripeSubscriptionID,
		&bankAccountName,
		&bankSortCode,
		&bankAccountNumber,
		&mandateStatus,
		&subscription.AutoRenew,
		&subscription.CancelledAt,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		return domain.Subscription{}, err
	}

	if stripeCustomerID != nil {
		subscription.StripeCustomerID = *stripeCustomerID
	}
	if stripeSubscriptionID != nil {
		subscription.StripeSubscriptionID = *stripeSubscriptionID
	}

	if bankAccountName != nil {
		subscription.BankDetails = &domain.BankDetails{
			AccountName: *bankAccountName,
		}
		if bankSortCode != nil {
			subscription.BankDetails.SortCode = *bankSortCode
		}
		if bankAccountNumber != nil {
			subscription.BankDetails.AccountNumber = *bankAccountNumber
		}
	}
	if mandateStatus != nil {
		subscription.MandateStatus = domain.MandateStatus(*mandateStatus)
	}

	return subscription, nil
}

// nullableString возвращает nil для пустой строки
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
