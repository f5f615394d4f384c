package stripe

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
)

// CustomerResponse представляет ответ API Stripe о клиенте
type CustomerResponse struct {
	ID     string         `json:"id"`
	Object string         `json:"object"`
	Email  string         `json:"email"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// CreateCustomer создает клиента Stripe с платежным методом по умолчанию
func (c *Client) CreateCustomer(ctx context.Context, email, paymentMethodID string) (string, error) {
	c.log.Debug("Creating Stripe customer for email: %s", email)

	formData := url.Values{}
	formData.Add("email", email)
	formData.Add("payment_method", paymentMethodID)
	formData.Add("invoice_settings[default_payment_method]", paymentMethodID)

	var customerResp CustomerResponse
	if err := c.postForm(ctx, http.MethodPost, "/customers", formData, &customerResp); err != nil {
		return "", domain.NewExternalServiceError("stripe", "customer_create_failed", "failed to create customer", err)
	}

	if customerResp.Error != nil {
		return "", domain.NewExternalServiceError("stripe", customerResp.Error.Code, customerResp.Error.Message, nil)
	}

	c.log.Info("Created Stripe customer with ID: %s", customerResp.ID)
	return customerResp.ID, nil
}
