package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher publishes CloudEvents to a topic.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, event CloudEvent) error
	Close() error
}

// Producer publishes CloudEvents with a shared kafka-go writer.
type Producer struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// NewProducer creates a Producer. The topic is chosen per message.
func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	return &Producer{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

// PublishEvent writes event to topic keyed by its subject so that events for the
// same booking stay ordered.
func (p *Producer) PublishEvent(ctx context.Context, topic string, event CloudEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal cloud event: %w", err)
	}

	key := event.Subject
	if key == "" {
		key = event.ID
	}

	if err := p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", topic, err)
	}

	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("type", event.Type),
		zap.String("id", event.ID),
	)
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. It stands in when no brokers are configured.
type NopPublisher struct {
	logger *zap.Logger
}

// NewNopPublisher creates a NopPublisher.
func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

// PublishEvent logs and discards the event.
func (p *NopPublisher) PublishEvent(_ context.Context, topic string, event CloudEvent) error {
	p.logger.Debug("event dropped, kafka disabled",
		zap.String("topic", topic),
		zap.String("type", event.Type),
	)
	return nil
}

// Close is a no-op.
func (p *NopPublisher) Close() error { return nil }
