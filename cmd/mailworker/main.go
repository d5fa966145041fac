// Command mailworker relays queued notification email to the SMTP server.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/yukikurage/team-task-api/internal/config"
	"github.com/yukikurage/team-task-api/internal/logging"
	"github.com/yukikurage/team-task-api/internal/notify"
)

func main() {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err := logging.InitSentry(log, cfg.SentryDSN, cfg.GinMode); err != nil {
		log.WithError(err).Warn("Sentry disabled")
	}
	defer logging.Flush()

	if cfg.MailQueueURL == "" {
		log.Fatal("MAIL_QUEUE_URL is required")
	}

	client, err := notify.DialAMQP(cfg.MailQueueURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to mail queue")
	}
	defer client.Close()

	if err := client.DeclareQueue(cfg.MailQueue); err != nil {
		log.WithError(err).Fatal("Failed to declare mail queue")
	}

	deliveries, err := client.Consume(cfg.MailQueue, "mailworker")
	if err != nil {
		log.WithError(err).Fatal("Failed to consume mail queue")
	}

	smtp := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithField("queue", cfg.MailQueue).Info("Mail worker started")
	if err := notify.NewWorker(smtp, log).Run(ctx, deliveries); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Mail worker stopped")
		return
	}
	log.Info("Mail worker stopped")
}
