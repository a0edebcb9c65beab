package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// ErrPermanent marks handler failures that retrying cannot fix.
var ErrPermanent = errors.New("kafka: permanent message failure")

type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
	// Attempts and Backoff bound per-message retries; backoff doubles each attempt.
	Attempts int
	Backoff  time.Duration
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: g, handler: handler, logger: logger, Attempts: 3, Backoff: 200 * time.Millisecond}, nil
}

// Run consumes until ctx is cancelled, rejoining the group after every rebalance.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	for {
		gh := consumerGroupHandler{handler: c.handler, logger: c.logger, attempts: c.Attempts, backoff: c.Backoff}
		if err := c.group.Consume(ctx, topics, gh); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	handler  MessageHandler
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

func (h consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks every message once handled or out of attempts; eviction is best
// effort and one poisoned message must not stall its partition.
func (h consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.handle(sess.Context(), message); err != nil {
			if sess.Context().Err() != nil {
				return nil
			}
			h.logger.WarnContext(sess.Context(), "kafka message dropped",
				"topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err)
		}
		sess.MarkMessage(message, "")
	}
	return nil
}

func (h consumerGroupHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	attempts := max(h.attempts, 1)
	var err error
	for i := 0; i < attempts; i++ {
		if err = h.handler.Handle(ctx, msg); err == nil || errors.Is(err, ErrPermanent) {
			return err
		}
		if i+1 < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(h.backoff << i):
			}
		}
	}
	return err
}
