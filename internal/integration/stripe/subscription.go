package stripe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
)

// SubscriptionResponse представляет ответ API Stripe о подписке
type SubscriptionResponse struct {
	ID                string         `json:"id"`
	Object            string         `json:"object"`
	Customer          string         `json:"customer"`
	Status            string         `json:"status"`
	TrialEnd          *int64         `json:"trial_end"`
	CancelAtPeriodEnd bool           `json:"cancel_at_period_end"`
	CanceledAt        *int64         `json:"canceled_at"`
	Error             *ErrorResponse `json:"error,omitempty"`
}

// CreateSubscription создает подписку Stripe для клиента.
// Первое списание происходит только после окончания пробного периода:
// trial_end передается в секундах эпохи.
func (c *Client) CreateSubscription(ctx context.Context, customerID string, tier domain.SubscriptionTier, frequency domain.PaymentFrequency, trialEnd time.Time) (string, error) {
	c.log.Debug("Creating Stripe subscription for customer: %s, tier: %s, frequency: %s", customerID, tier, frequency)

	priceID, err := c.priceID(tier, frequency)
	if err != nil {
		return "", domain.NewExternalServiceError("stripe", "price_not_configured", "unknown price for tier", err)
	}

	formData := url.Values{}
	formData.Add("customer", customerID)
	formData.Add("items[0][price]", priceID)
	formData.Add("trial_end", fmt.Sprintf("%d", trialEnd.Unix()))

	var subscriptionResp SubscriptionResponse
	if err := c.postForm(ctx, http.MethodPost, "/subscriptions", formData, &subscriptionResp); err != nil {
		return "", domain.NewExternalServiceError("stripe", "subscription_create_failed", "failed to create subscription", err)
	}

	if subscriptionResp.Error != nil {
		return "", domain.NewExternalServiceError("stripe", subscriptionResp.Error.Code, subscriptionResp.Error.Message, nil)
	}

	c.log.Info("Created Stripe subscription with ID: %s", subscriptionResp.ID)
	return subscriptionResp.ID, nil
}

// CancelSubscription отменяет подписку Stripe по идентификатору провайдера
func (c *Client) CancelSubscription(ctx context.Context, providerRef string) error {
	c.log.Debug("Cancelling Stripe subscription with ID: %s", providerRef)

	var subscriptionResp SubscriptionResponse
	if err := c.postForm(ctx, http.MethodDelete, "/subscriptions/"+providerRef, nil, &subscriptionResp); err != nil {
		return domain.NewExternalServiceError("stripe", "subscription_cancel_failed", "failed to cancel subscription", err)
	}

	if subscriptionResp.Error != nil {
		return domain.NewExternalServiceError("stripe", subscriptionResp.Error.Code, subscriptionResp.Error.Message, nil)
	}

	c.log.Info("Cancelled Stripe subscription: %s", providerRef)
	return nil
}
