package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/realtime"
)

// eventPublisher fans change events out to realtime subscribers. Delivery is
// best effort; failures are logged and never fail the write that caused them.
type eventPublisher struct {
	broker realtime.Broker
	log    logrus.FieldLogger
}

func (p eventPublisher) publish(ctx context.Context, eventType, id string, topics ...string) {
	if p.broker == nil {
		return
	}

	event := realtime.Event{Type: eventType, ID: id}
	for _, topic := range topics {
		if err := p.broker.Publish(ctx, topic, event); err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{
				"topic": topic,
				"event": eventType,
				"id":    id,
			}).Warn("Failed to publish change event")
		}
	}
}
