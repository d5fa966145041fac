// Package realtime fans out change events to live subscribers over Redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/constants"
)

// Event types
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
	EventTeamUpdated = "team.updated"
	EventTeamDeleted = "team.deleted"
	EventChatMessage = "chat.message"
	EventChatRead    = "chat.read"
	EventUserUpdated = "user.updated"

	// EventTeamMemberRemoved carries the removed user's ID
	EventTeamMemberRemoved = "team.member_removed"
)

const subscriptionBuffer = 16

// Event tells subscribers that something on a topic changed. Subscribers
// re-read the current state rather than applying the event as a diff.
type Event struct {
	Type string    `json:"type"`
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
}

// Broker publishes and subscribes to topic events
type Broker interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
}

// UserTasksTopic is the topic for changes to tasks a user assigned or received
func UserTasksTopic(userID string) string {
	return constants.TopicUserTasksPrefix + userID
}

// TeamTopic is the topic for changes to a team
func TeamTopic(teamID string) string {
	return constants.TopicTeamPrefix + teamID
}

// ChatTopic is the topic for a conversation
func ChatTopic(conversationKey string) string {
	return constants.TopicChatPrefix + conversationKey
}

// UserTopic is the topic for changes to a user's own record
func UserTopic(userID string) string {
	return constants.TopicUserPrefix + userID
}

// Subscription is a live stream of events for one topic
type Subscription struct {
	events chan Event
	cancel context.CancelFunc
	pubsub *redis.PubSub
	once   sync.Once
	done   chan struct{}
}

// Events returns the event stream. It is closed after Close.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close unsubscribes and releases the underlying connection
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}

// RedisBroker is a Broker backed by Redis pub/sub. Delivery is best effort:
// events published while nobody listens are lost.
type RedisBroker struct {
	client *redis.Client
	log    logrus.FieldLogger
}

// NewRedisBroker creates a broker on an existing client
func NewRedisBroker(client *redis.Client, log logrus.FieldLogger) *RedisBroker {
	return &RedisBroker{client: client, log: log}
}

// Publish sends an event to every current subscriber of topic
func (b *RedisBroker) Publish(ctx context.Context, topic string, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe starts listening on topic. The subscription is active when
// Subscribe returns. It ends when ctx is cancelled or Close is called.
func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		events: make(chan Event, subscriptionBuffer),
		cancel: cancel,
		pubsub: pubsub,
		done:   make(chan struct{}),
	}

	go b.forward(subCtx, topic, sub)

	return sub, nil
}

func (b *RedisBroker) forward(ctx context.Context, topic string, sub *Subscription) {
	defer close(sub.done)
	defer close(sub.events)

	messages := sub.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.WithError(err).WithField("topic", topic).Warn("Dropping malformed event")
				continue
			}

			// Subscribers re-read state on every event, so a full buffer
			// already has a pending refresh and the event can be dropped.
			select {
			case sub.events <- event:
			default:
			}
		}
	}
}
