// Package notify delivers customer-facing messages after a state change has committed.
package notify

import (
	"context"
	"fmt"

	"storefront/internal/config"

	"github.com/rs/zerolog"
)

// Message is a single customer notification.
type Message struct {
	Kind    string `json:"kind"`
	OrderID int64  `json:"orderid"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier sends messages. Callers treat failures as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Close() error
}

// New builds the notifier selected by cfg.Driver.
func New(cfg config.NotifyConfig, logger zerolog.Logger) (Notifier, error) {
	switch cfg.Driver {
	case "smtp":
		return NewSMTPNotifier(cfg, logger), nil
	case "kafka":
		return NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger), nil
	case "log", "":
		return NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notify driver: %s", cfg.Driver)
	}
}

type logNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier writes notifications to the log instead of sending them.
func NewLogNotifier(logger zerolog.Logger) Notifier {
	return &logNotifier{logger: logger.With().Str("component", "log-notifier").Logger()}
}

func (n *logNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.Info().
		Str("kind", msg.Kind).
		Int64("order_id", msg.OrderID).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("notification")
	return nil
}

func (n *logNotifier) Close() error { return nil }
