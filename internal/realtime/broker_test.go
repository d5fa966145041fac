package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*RedisBroker, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		client.Close()
	})

	logger, _ := test.NewNullLogger()
	return NewRedisBroker(client, logger), server
}

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()

	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, UserTasksTopic("u1"))
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, broker.Publish(ctx, UserTasksTopic("u1"), Event{Type: EventTaskCreated, ID: "t1"}))
	require.NoError(t, broker.Publish(ctx, UserTasksTopic("u2"), Event{Type: EventTaskCreated, ID: "t2"}))
	require.NoError(t, broker.Publish(ctx, UserTasksTopic("u1"), Event{Type: EventTaskDeleted, ID: "t1"}))

	first := receive(t, sub)
	assert.Equal(t, EventTaskCreated, first.Type)
	assert.Equal(t, "t1", first.ID)
	assert.False(t, first.At.IsZero())

	second := receive(t, sub)
	assert.Equal(t, EventTaskDeleted, second.Type)
}

func TestRedisBroker_CloseEndsStream(t *testing.T) {
	broker, _ := newTestBroker(t)

	sub, err := broker.Subscribe(context.Background(), TeamTopic("team-1"))
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok)
}

func TestRedisBroker_ContextCancelEndsStream(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := broker.Subscribe(ctx, ChatTopic("a_b"))
	require.NoError(t, err)
	defer sub.Close()

	cancel()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after cancel")
	}
}

func TestRedisBroker_SubscribeFailsWhenServerDown(t *testing.T) {
	broker, server := newTestBroker(t)
	server.Close()

	_, err := broker.Subscribe(context.Background(), TeamTopic("team-1"))
	assert.Error(t, err)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "tasks:user:u1", UserTasksTopic("u1"))
	assert.Equal(t, "teams:t1", TeamTopic("t1"))
	assert.Equal(t, "chats:a_b", ChatTopic("a_b"))
	assert.Equal(t, "users:u1", UserTopic("u1"))
}
