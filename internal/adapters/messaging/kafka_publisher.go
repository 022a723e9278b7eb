// Package messaging publishes lifecycle notifications to Kafka.
package messaging

import (
	"context"
	"fmt"
	"time"

	"microloan/internal/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConfig holds producer settings
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher implements services.EventPublisher. Writes are asynchronous;
// delivery failures are logged by the completion callback.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

// NewKafkaPublisher creates a new Kafka publisher
func NewKafkaPublisher(cfg KafkaConfig, log *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: no topic configured")
	}
	log = logger.OrNop(log)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            5,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
		BatchTimeout:           50 * time.Millisecond,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("kafka delivery failed",
					zap.String("topic", cfg.Topic),
					zap.Int("count", len(messages)),
					zap.Error(err),
				)
			}
		},
	}

	log.Info("kafka publisher created", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return &KafkaPublisher{writer: writer, log: log}, nil
}

// Publish enqueues one message keyed by key so events of one application keep their order
func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
