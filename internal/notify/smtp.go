package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds mail relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier relays email through an SMTP server
type SMTPNotifier struct {
	from   string
	sender gomail.Sender
	dialer *gomail.Dialer
	log    logrus.FieldLogger
}

// NewSMTPNotifier creates a notifier that dials the relay for every message
func NewSMTPNotifier(cfg SMTPConfig, log logrus.FieldLogger) *SMTPNotifier {
	return &SMTPNotifier{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		log:    log,
	}
}

// NewSMTPNotifierWithSender creates a notifier that hands messages to sender
func NewSMTPNotifierWithSender(from string, sender gomail.Sender, log logrus.FieldLogger) *SMTPNotifier {
	return &SMTPNotifier{from: from, sender: sender, log: log}
}

// Send delivers the email. gomail has no context support, so a cancelled
// context only stops the wait; the SMTP exchange finishes in the background.
func (n *SMTPNotifier) Send(ctx context.Context, email Email) error {
	if err := email.validate(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/html", email.HTMLBody)

	done := make(chan error, 1)
	go func() {
		done <- n.deliver(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("error sending email: %w", err)
		}
		n.log.WithFields(logrus.Fields{
			"to":      email.To,
			"subject": email.Subject,
		}).Debug("Email sent")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("error sending email: %w", ctx.Err())
	}
}

func (n *SMTPNotifier) deliver(m *gomail.Message) error {
	if n.sender != nil {
		return gomail.Send(n.sender, m)
	}
	return n.dialer.DialAndSend(m)
}
