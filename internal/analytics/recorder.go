// internal/analytics/recorder.go
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// AttemptRecord is one per-attempt success/failure observation used for
// success-rate tracking.
type AttemptRecord struct {
	MerchantID      string    `json:"merchant_id"`
	ProfileID       string    `json:"profile_id,omitempty"`
	Connector       string    `json:"connector"`
	PaymentMethodID string    `json:"payment_method_id,omitempty"`
	Currency        string    `json:"currency"`
	Success         bool      `json:"success"`
	Timestamp       time.Time `json:"timestamp"`
}

// WindowUpdate feeds the sliding success-rate window for a connector.
type WindowUpdate struct {
	ProfileID       string    `json:"profile_id,omitempty"`
	Connector       string    `json:"connector"`
	PaymentMethodID string    `json:"payment_method_id,omitempty"`
	Currency        string    `json:"currency"`
	Success         bool      `json:"success"`
	WindowMinutes   int       `json:"window_minutes"`
	Timestamp       time.Time `json:"timestamp"`
}

// Recorder records attempt outcomes for success-rate tracking. Failures here
// must never affect the payment outcome; callers log and discard errors.
type Recorder interface {
	RecordPaymentAttempt(ctx context.Context, record *AttemptRecord) error
	UpdateSuccessRateWindow(ctx context.Context, update *WindowUpdate) error
}

// Noop is the recorder used when no analytics backend is configured.
type Noop struct{}

func (Noop) RecordPaymentAttempt(ctx context.Context, record *AttemptRecord) error {
	return nil
}

func (Noop) UpdateSuccessRateWindow(ctx context.Context, update *WindowUpdate) error {
	return nil
}

// KafkaRecorder publishes attempt outcomes to a Kafka topic consumed by the
// analytics pipeline.
type KafkaRecorder struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewKafkaRecorder(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaRecorder {
	return &KafkaRecorder{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// NewProducer builds a sarama sync producer with full acks and retries.
func NewProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return producer, nil
}

func (r *KafkaRecorder) RecordPaymentAttempt(ctx context.Context, record *AttemptRecord) error {
	return r.publish("payment_attempt", record)
}

func (r *KafkaRecorder) UpdateSuccessRateWindow(ctx context.Context, update *WindowUpdate) error {
	return r.publish("success_rate_window", update)
}

func (r *KafkaRecorder) publish(eventType string, payload interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"event_type": eventType,
		"payload":    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal analytics event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: r.topic,
		Value: sarama.StringEncoder(body),
	}

	partition, offset, err := r.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send analytics event: %w", err)
	}

	r.logger.Debug("analytics event published",
		zap.String("event_type", eventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))

	return nil
}
