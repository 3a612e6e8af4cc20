package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaNotifier struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// NewKafkaNotifier publishes notifications as JSON events keyed by order ID,
// leaving delivery to a downstream mailer.
func NewKafkaNotifier(brokers []string, topic string, logger zerolog.Logger) Notifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	logger = logger.With().Str("component", "kafka-notifier").Str("topic", topic).Logger()
	logger.Info().Strs("brokers", brokers).Msg("kafka notifier initialised")
	return &kafkaNotifier{writer: w, topic: topic, logger: logger}
}

func (n *kafkaNotifier) Notify(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.OrderID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(msg.Kind)},
		},
	})
	if err != nil {
		n.logger.Error().Err(err).Int64("order_id", msg.OrderID).Msg("failed to publish notification")
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	n.logger.Debug().Int64("order_id", msg.OrderID).Str("kind", msg.Kind).Msg("notification published")
	return nil
}

func (n *kafkaNotifier) Close() error {
	n.logger.Info().Msg("closing kafka writer")
	return n.writer.Close()
}
