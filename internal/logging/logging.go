package logging

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. Release mode logs JSON, anything else logs text.
func New(level string, production bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if production {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// InitSentry configures the Sentry client and attaches a hook that forwards
// error-level entries. An empty DSN leaves Sentry disabled.
func InitSentry(logger *logrus.Logger, dsn, environment string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return err
	}
	logger.AddHook(NewSentryHook(sentry.CurrentHub()))
	return nil
}

// Flush waits for buffered Sentry events.
func Flush() {
	sentry.Flush(2 * time.Second)
}

// SentryHook sends error, fatal and panic entries to Sentry.
type SentryHook struct {
	hub *sentry.Hub
}

func NewSentryHook(hub *sentry.Hub) *SentryHook {
	return &SentryHook{hub: hub}
}

func (h *SentryHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *SentryHook) Fire(entry *logrus.Entry) error {
	h.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range entry.Data {
			if k == logrus.ErrorKey {
				continue
			}
			scope.SetExtra(k, v)
		}
		if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
			scope.SetExtra("message", entry.Message)
			h.hub.CaptureException(err)
			return
		}
		h.hub.CaptureMessage(entry.Message)
	})
	return nil
}
