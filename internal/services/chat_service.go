package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/realtime"
	"github.com/yukikurage/team-task-api/internal/repository"
)

var (
	ErrMessageTextRequired = errors.New("message text is required")
	ErrInvalidPeer         = errors.New("cannot open a conversation with yourself")
	ErrPeerNotFound        = errors.New("chat partner not found")
)

// ConversationKey derives the key two participants share. The ids are
// ordered so both sides derive the same key.
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// ChatService handles direct messages between two users
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	events   eventPublisher
}

// NewChatService creates a new ChatService
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, broker realtime.Broker, log logrus.FieldLogger) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		events:   eventPublisher{broker: broker, log: log},
	}
}

// SendMessage appends a message from sender to peer
func (s *ChatService) SendMessage(ctx context.Context, sender *models.User, peerID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageTextRequired
	}

	peer, err := s.peer(ctx, sender.ID, peerID)
	if err != nil {
		return nil, err
	}

	key := ConversationKey(sender.ID, peer.ID)
	msg := &models.ChatMessage{
		ConversationKey: key,
		Text:            text,
		SenderID:        sender.ID,
		RecipientID:     peer.ID,
		IsAdmin:         sender.IsAdmin(),
	}

	if err := s.chatRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	s.events.publish(ctx, realtime.EventChatMessage, msg.ID, realtime.ChatTopic(key))
	return msg, nil
}

// ListMessages returns the latest messages of the conversation, oldest first
func (s *ChatService) ListMessages(ctx context.Context, userID, peerID string, limit int) ([]models.ChatMessage, error) {
	if userID == peerID {
		return nil, ErrInvalidPeer
	}

	switch {
	case limit <= 0:
		limit = constants.DefaultMessageLimit
	case limit > constants.MaxMessageLimit:
		limit = constants.MaxMessageLimit
	}

	msgs, err := s.chatRepo.ListByConversation(ctx, ConversationKey(userID, peerID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// MarkRead marks every message the peer sent to reader as read. Messages
// arriving during the update may stay unread.
func (s *ChatService) MarkRead(ctx context.Context, reader *models.User, peerID string) (int64, error) {
	if reader.ID == peerID {
		return 0, ErrInvalidPeer
	}

	key := ConversationKey(reader.ID, peerID)
	n, err := s.chatRepo.MarkRead(ctx, key, reader.ID, reader.IsAdmin())
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	if n > 0 {
		s.events.publish(ctx, realtime.EventChatRead, key, realtime.ChatTopic(key))
	}
	return n, nil
}

// UnreadCounts returns the reader's unread message count per sender
func (s *ChatService) UnreadCounts(ctx context.Context, reader *models.User) (map[string]int64, error) {
	counts, err := s.chatRepo.CountUnread(ctx, reader.ID, reader.IsAdmin())
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return counts, nil
}

func (s *ChatService) peer(ctx context.Context, senderID, peerID string) (*models.User, error) {
	if senderID == peerID {
		return nil, ErrInvalidPeer
	}
	peer, err := findUser(ctx, s.userRepo, peerID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrPeerNotFound
	}
	return peer, err
}
