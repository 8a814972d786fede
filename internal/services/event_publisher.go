package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"portal/internal/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Portal event types
const (
	EventPaymentConfirmed = "payment.confirmed"
	EventPaymentFailed    = "payment.failed"
	EventFormSubmitted    = "form.submitted"
	EventMessageSent      = "message.sent"
)

type Event struct {
	Type       string      `json:"type"`
	TenantSlug string      `json:"tenant_slug"`
	UserID     string      `json:"user_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// EventPublisher emits portal events. Publishing failures never fail the originating request.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewEventPublisher writes to Kafka when brokers are configured, otherwise it only logs
func NewEventPublisher(cfg config.KafkaConfig, logger *zap.Logger) EventPublisher {
	if len(cfg.Brokers) == 0 {
		logger.Info("kafka not configured, events will be logged only")
		return &logPublisher{logger: logger}
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &kafkaPublisher{writer: writer, logger: logger}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	msg := kafka.Message{
		Key:   []byte(event.TenantSlug),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event", zap.String("type", event.Type), zap.Error(err))
	}
}

func (p *kafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

type logPublisher struct {
	logger *zap.Logger
}

func (p *logPublisher) Publish(ctx context.Context, event Event) {
	p.logger.Info("portal event",
		zap.String("type", event.Type),
		zap.String("tenant", event.TenantSlug),
		zap.String("user_id", event.UserID),
		zap.Any("data", event.Data),
	)
}

func (p *logPublisher) Close() error {
	return nil
}
