package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// PriceTable идентификаторы цен Stripe по тарифу и периодичности
type PriceTable struct {
	BusinessMonthly string
	BusinessAnnual  string
	VendorMonthly   string
	VendorAnnual    string
}

// Config конфигурация для клиента Stripe
type Config struct {
	APIKey string
	Prices PriceTable
}

// Client представляет клиент для работы с API Stripe
type Client struct {
	baseURL    string
	apiKey     string
	prices     PriceTable
	httpClient *http.Client
	log        *logger.Logger
}

// ErrorResponse представляет ошибку в ответе API Stripe
type ErrorResponse struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient создает новый клиент Stripe
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{
		baseURL: "https://api.stripe.com/v1",
		apiKey:  cfg.APIKey,
		prices:  cfg.Prices,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// priceID возвращает идентификатор цены Stripe для тарифа и периодичности
func (c *Client) priceID(tier domain.SubscriptionTier, frequency domain.PaymentFrequency) (string, error) {
	annual := frequency == domain.PaymentFrequencyAnnual

	switch tier {
	case domain.SubscriptionTierBusiness:
		if annual {
			return c.prices.BusinessAnnual, nil
		}
		return c.prices.BusinessMonthly, nil
	case domain.SubscriptionTierVendor:
		if annual {
			return c.prices.VendorAnnual, nil
		}
		return c.prices.VendorMonthly, nil
	default:
		return "", fmt.Errorf("no stripe price configured for tier %q", tier)
	}
}

// postForm выполняет form-encoded запрос к API Stripe и декодирует ответ
func (c *Client) postForm(ctx context.Context, method, path string, formData url.Values, out interface{}) error {
	var body *strings.Reader
	if formData != nil {
		body = strings.NewReader(formData.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
