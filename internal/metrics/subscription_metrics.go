package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// SubscriptionMetrics интерфейс для метрик жизненного цикла подписок
type SubscriptionMetrics interface {
	IncSubscriptionStarted(tier, paymentMethod string)
	IncSubscriptionActivated(tier string)
	IncSubscriptionCancelled(tier string)
	ObserveSubscriptionPrice(price int64, tier, frequency string)
}

type subscriptionMetrics struct {
	log                    *logger.Logger
	subscriptionsStarted   *prometheus.CounterVec
	subscriptionsActivated *prometheus.CounterVec
	subscriptionsCancelled *prometheus.CounterVec
	subscriptionPrice      *prometheus.HistogramVec
}

// NewSubscriptionMetrics создает новые метрики подписок
func NewSubscriptionMetrics(registry *prometheus.Registry, log *logger.Logger) SubscriptionMetrics {
	subscriptionsStarted := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_started_total",
			Help: "The total number of started subscriptions",
		},
		[]string{"tier", "payment_method"},
	)

	subscriptionsActivated := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_activated_total",
			Help: "The total number of subscriptions activated after trial",
		},
		[]string{"tier"},
	)

	subscriptionsCancelled := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_cancelled_total",
			Help: "The total number of cancelled subscriptions",
		},
		[]string{"tier"},
	)

	subscriptionPrice := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subscription_price_pence",
			Help:    "Subscription price distribution in pence",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 7), // 1000..64000
		},
		[]string{"tier", "frequency"},
	)

	return &subscriptionMetrics{
		log:                    log,
		subscriptionsStarted:   subscriptionsStarted,
		subscriptionsActivated: subscriptionsActivated,
		subscriptionsCancelled: subscriptionsCancelled,
		subscriptionPrice:      subscriptionPrice,
	}
}

// IncSubscriptionStarted увеличивает счетчик созданных подписок
func (m *subscriptionMetrics) IncSubscriptionStarted(tier, paymentMethod string) {
	m.subscriptionsStarted.WithLabelValues(tier, paymentMethod).Inc()
}

// IncSubscriptionActivated увеличивает счетчик активированных подписок
func (m *subscriptionMetrics) IncSubscriptionActivated(tier string) {
	m.subscriptionsActivated.WithLabelValues(tier).Inc()
}

// IncSubscriptionCancelled увеличивает счетчик отмененных подписок
func (m *subscriptionMetrics) IncSubscriptionCancelled(tier string) {
	m.subscriptionsCancelled.WithLabelValues(tier).Inc()
}

// ObserveSubscriptionPrice записывает цену подписки
func (m *subscriptionMetrics) ObserveSubscriptionPrice(price int64, tier, frequency string) {
	m.subscriptionPrice.WithLabelValues(tier, frequency).Observe(float64(price))
}

// NoOpSubscriptionMetrics заглушка метрик для тестов
type NoOpSubscriptionMetrics struct{}

func (NoOpSubscriptionMetrics) IncSubscriptionStarted(tier, paymentMethod string)            {}
func (NoOpSubscriptionMetrics) IncSubscriptionActivated(tier string)                         {}
func (NoOpSubscriptionMetrics) IncSubscriptionCancelled(tier string)                         {}
func (NoOpSubscriptionMetrics) ObserveSubscriptionPrice(price int64, tier, frequency string) {}
