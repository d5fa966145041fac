// Package notify delivers the service's outbound email.
package notify

import (
	"context"
	"errors"
)

// ErrNoRecipients is returned when an email has no addressee
var ErrNoRecipients = errors.New("email has no recipients")

// Email is a rendered HTML message
type Email struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	HTMLBody string   `json:"html_body"`
}

// Notifier sends an email or hands it to something that will
type Notifier interface {
	Send(ctx context.Context, email Email) error
}

func (e Email) validate() error {
	if len(e.To) == 0 {
		return ErrNoRecipients
	}
	return nil
}
