package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"storefront/internal/config"

	"github.com/rs/zerolog"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpNotifier struct {
	addr     string
	host     string
	from     string
	user     string
	password string
	send     sendMailFunc
	logger   zerolog.Logger
}

// NewSMTPNotifier sends HTML mail through an authenticated relay.
func NewSMTPNotifier(cfg config.NotifyConfig, logger zerolog.Logger) Notifier {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &smtpNotifier{
		addr:     cfg.SMTPAddress(),
		host:     cfg.SMTPHost,
		from:     from,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		send:     smtp.SendMail,
		logger:   logger.With().Str("component", "smtp-notifier").Logger(),
	}
}

func (n *smtpNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("notification for order %d has no recipient", msg.OrderID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.user != "" {
		auth = smtp.PlainAuth("", n.user, n.password, n.host)
	}

	body := []byte(
		"From: " + n.from + "\r\n" +
			"To: " + msg.To + "\r\n" +
			"Subject: " + msg.Subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			msg.Body,
	)

	if err := n.send(n.addr, auth, n.from, []string{msg.To}, body); err != nil {
		n.logger.Error().Err(err).Int64("order_id", msg.OrderID).Str("to", msg.To).Msg("smtp send failed")
		return fmt.Errorf("smtp send failed: %w", err)
	}

	n.logger.Info().Int64("order_id", msg.OrderID).Str("kind", msg.Kind).Msg("email sent")
	return nil
}

func (n *smtpNotifier) Close() error { return nil }
