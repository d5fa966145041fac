package services

import (
	"context"
	"errors"
	"sync"

	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/notify"
	"github.com/yukikurage/team-task-api/internal/realtime"
	"github.com/yukikurage/team-task-api/internal/repository"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Email
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, email notify.Email) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, email)
	return nil
}

func (n *fakeNotifier) emails() []notify.Email {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Email(nil), n.sent...)
}

type published struct {
	topic string
	event realtime.Event
}

type fakeBroker struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (b *fakeBroker) Publish(_ context.Context, topic string, event realtime.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, published{topic: topic, event: event})
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (*realtime.Subscription, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBroker) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, p := range b.events {
		out = append(out, p.topic)
	}
	return out
}

// failingTaskRepo fails Delete for the listed task IDs
type failingTaskRepo struct {
	repository.TaskRepository
	failIDs map[string]bool
}

var errStoreUnavailable = errors.New("store unavailable")

func (r *failingTaskRepo) Delete(ctx context.Context, id string) error {
	if r.failIDs[id] {
		return errStoreUnavailable
	}
	return r.TaskRepository.Delete(ctx, id)
}

// missingUserRepo reports the listed user IDs as not found
type missingUserRepo struct {
	repository.UserRepository
	missing map[string]bool
}

func (r *missingUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if r.missing[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return r.UserRepository.FindByID(ctx, id)
}

type fakeDraftGenerator struct {
	drafts []GeneratedTask
	err    error
}

func (g *fakeDraftGenerator) GenerateTasksFromText(context.Context, string) ([]GeneratedTask, error) {
	return g.drafts, g.err
}
