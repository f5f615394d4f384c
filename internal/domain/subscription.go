package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus статус подписки
type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// SubscriptionTier уровень тарифа маркетплейса
type SubscriptionTier string

const (
	SubscriptionTierBusiness SubscriptionTier = "business"
	SubscriptionTierVendor   SubscriptionTier = "vendor"
	SubscriptionTierNone     SubscriptionTier = "none"
)

// PaymentMethod способ оплаты подписки. Фиксируется при создании.
type PaymentMethod string

const (
	PaymentMethodStripe      PaymentMethod = "stripe"
	PaymentMethodDirectDebit PaymentMethod = "direct_debit"
)

// PaymentFrequency периодичность списаний
type PaymentFrequency string

const (
	PaymentFrequencyMonthly PaymentFrequency = "monthly"
	PaymentFrequencyAnnual  PaymentFrequency = "annual"
)

// MandateStatus статус мандата прямого дебета
type MandateStatus string

const (
	MandateStatusPending   MandateStatus = "pending"
	MandateStatusCollected MandateStatus = "collected"
)

// TrialPeriodDays длительность пробного периода в днях
const TrialPeriodDays = 30

// Базовые месячные цены тарифов в пенсах
const (
	businessMonthlyBase int64 = 2999
	vendorMonthlyBase   int64 = 4999
)

// BankDetails реквизиты для прямого дебета
type BankDetails struct {
	AccountName   string `json:"account_name"`
	SortCode      string `json:"sort_code"`
	AccountNumber string `json:"account_number"`
}

// Subscription представляет собой подписку аккаунта маркетплейса.
// Ровно одна из веток оплаты заполнена: StripeCustomerID/StripeSubscriptionID
// для карточных подписок, BankDetails/MandateStatus для прямого дебета.
type Subscription struct {
	ID               uuid.UUID          `json:"id"`
	UserID           uuid.UUID          `json:"user_id"`
	Tier             SubscriptionTier   `json:"tier"`
	Status           SubscriptionStatus `json:"status"`
	PaymentMethod    PaymentMethod      `json:"payment_method"`
	PaymentFrequency PaymentFrequency   `json:"payment_frequency"`
	StartDate        time.Time          `json:"start_date"`
	TrialEndDate     time.Time          `json:"trial_end_date"`
	EndDate          time.Time          `json:"end_date"`
	Price            int64              `json:"price"`

	StripeCustomerID     string `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string `json:"stripe_subscription_id,omitempty"`

	BankDetails   *BankDetails  `json:"bank_details,omitempty"`
	MandateStatus MandateStatus `json:"mandate_status,omitempty"`

	AutoRenew   bool       `json:"auto_renew"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SubscriptionMirror денормализованная копия состояния подписки,
// хранящаяся на записи пользователя. Пишется в одной транзакции с подпиской.
type SubscriptionMirror struct {
	Active bool
	Tier   SubscriptionTier
	EndsAt *time.Time
}

// SubscriptionRequest запрос на создание подписки
type SubscriptionRequest struct {
	UserID                string       `json:"user_id" binding:"required"`
	Tier                  string       `json:"tier" binding:"required"`
	PaymentMethod         string       `json:"payment_method" binding:"required"`
	PaymentFrequency      string       `json:"payment_frequency" binding:"required"`
	Email                 string       `json:"email,omitempty"`
	StripePaymentMethodID string       `json:"stripe_payment_method_id,omitempty"`
	BankDetails           *BankDetails `json:"bank_details,omitempty"`
}

// ValidTier проверяет, что тариф входит в закрытый набор
func ValidTier(tier SubscriptionTier) bool {
	return tier == SubscriptionTierBusiness || tier == SubscriptionTierVendor
}

// MonthlyBase возвращает базовую месячную цену тарифа в пенсах
func MonthlyBase(tier SubscriptionTier) int64 {
	switch tier {
	case SubscriptionTierBusiness:
		return businessMonthlyBase
	case SubscriptionTierVendor:
		return vendorMonthlyBase
	default:
		return 0
	}
}

// PriceFor вычисляет цену подписки в пенсах.
// Годовая подписка: floor(месячная база * 12 * 0.9).
func PriceFor(tier SubscriptionTier, frequency PaymentFrequency) int64 {
	base := MonthlyBase(tier)
	if frequency == PaymentFrequencyAnnual {
		return base * 12 * 9 / 10
	}
	return base
}

// TrialEndFor вычисляет дату окончания пробного периода: старт + 30 дней
func TrialEndFor(start time.Time) time.Time {
	return start.AddDate(0, 0, TrialPeriodDays)
}

// EndDateFor вычисляет дату окончания оплаченного периода,
// отсчитываемую от конца пробного периода.
func EndDateFor(trialEnd time.Time, frequency PaymentFrequency) time.Time {
	if frequency == PaymentFrequencyAnnual {
		return trialEnd.AddDate(1, 0, 0)
	}
	return trialEnd.AddDate(0, 1, 0)
}

// Mirror возвращает состояние зеркальных полей пользователя
// для текущего состояния подписки.
func (s Subscription) Mirror() SubscriptionMirror {
	if s.Status == SubscriptionStatusCancelled {
		return SubscriptionMirror{
			Active: false,
			Tier:   SubscriptionTierNone,
		}
	}

	endsAt := s.EndDate
	return SubscriptionMirror{
		Active: true,
		Tier:   s.Tier,
		EndsAt: &endsAt,
	}
}
