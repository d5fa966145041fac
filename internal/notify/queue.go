package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher puts a message on a named queue
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// QueueNotifier enqueues emails for the mail worker
type QueueNotifier struct {
	publisher Publisher
	queue     string
}

// NewQueueNotifier creates a notifier publishing to queue
func NewQueueNotifier(publisher Publisher, queue string) *QueueNotifier {
	return &QueueNotifier{publisher: publisher, queue: queue}
}

// Send enqueues the email. Success means the broker accepted the job, not
// that the mail was delivered.
func (n *QueueNotifier) Send(ctx context.Context, email Email) error {
	if err := email.validate(); err != nil {
		return err
	}

	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to encode email job: %w", err)
	}

	if err := n.publisher.Publish(ctx, n.queue, body); err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	return nil
}

// Worker relays queued emails through a Notifier
type Worker struct {
	notifier Notifier
	log      logrus.FieldLogger
}

// NewWorker creates a Worker
func NewWorker(notifier Notifier, log logrus.FieldLogger) *Worker {
	return &Worker{notifier: notifier, log: log}
}

// Run processes deliveries until ctx is cancelled or the channel closes.
// Jobs are acked after a successful send. Malformed jobs are rejected; failed
// sends are nacked without requeue so a broken relay cannot spin the queue.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var email Email
	if err := json.Unmarshal(d.Body, &email); err != nil {
		w.log.WithError(err).Error("Dropping malformed email job")
		if err := d.Reject(false); err != nil {
			w.log.WithError(err).Warn("Failed to reject email job")
		}
		return
	}

	entry := w.log.WithFields(logrus.Fields{
		"to":      email.To,
		"subject": email.Subject,
	})

	if err := w.notifier.Send(ctx, email); err != nil {
		entry.WithError(err).Error("Failed to relay email job")
		if err := d.Nack(false, false); err != nil {
			entry.WithError(err).Warn("Failed to nack email job")
		}
		return
	}

	if err := d.Ack(false); err != nil {
		entry.WithError(err).Warn("Failed to ack email job")
		return
	}
	entry.Info("Relayed email job")
}
