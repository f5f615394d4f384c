package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// Топики событий жизненного цикла подписки
const (
	TopicSubscriptionCreated   = "subscription_created"
	TopicSubscriptionActivated = "subscription_activated"
	TopicSubscriptionCancelled = "subscription_cancelled"
)

// Producer определяет интерфейс для публикации событий подписок.
// Ключом сообщения служит ID подписки: все события одной подписки
// попадают в одну партицию и сохраняют порядок.
type Producer interface {
	PublishSubscriptionEvent(ctx context.Context, topic string, subscription domain.Subscription) error
	Close() error
}

// kafkaProducer реализует Producer через segmentio/kafka-go
type kafkaProducer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaProducer создает и настраивает новый продюсер Kafka
func NewKafkaProducer(brokers []string, log *logger.Logger) (Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	log.Info("Kafka producer initialized for brokers: %v", brokers)

	return &kafkaProducer{
		writer: writer,
		log:    log,
	}, nil
}

// PublishSubscriptionEvent сериализует подписку и отправляет в топик
func (k *kafkaProducer) PublishSubscriptionEvent(ctx context.Context, topic string, subscription domain.Subscription) error {
	messageValue, err := json.Marshal(subscription)
	if err != nil {
		return fmt.Errorf("kafka: failed to marshal message data: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(subscription.ID.String()),
		Value: messageValue,
		Time:  time.Now(),
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(writeCtx, message); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("kafka: write timeout: %w", err)
		}
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	k.log.Debug("Published %s event for subscription %s", topic, subscription.ID)
	return nil
}

// Close закрывает writer продюсера
func (k *kafkaProducer) Close() error {
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("kafka: failed to close writer: %w", err)
	}
	return nil
}

// NoOpProducer заглушка продюсера: используется, когда Kafka недоступна,
// публикация событий не критична для основного флоу.
type NoOpProducer struct{}

// PublishSubscriptionEvent ничего не делает
func (NoOpProducer) PublishSubscriptionEvent(ctx context.Context, topic string, subscription domain.Subscription) error {
	return nil
}

// Close ничего не делает
func (NoOpProducer) Close() error { return nil }
