package repository

import (
	"context"
	"slices"

	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/gorm"
)

// GormChatRepository is a GORM implementation of ChatRepository
type GormChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &GormChatRepository{db: db}
}

// Create appends a message to its conversation
func (r *GormChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByConversation returns the newest messages of a conversation, oldest first
func (r *GormChatRepository) ListByConversation(ctx context.Context, conversationKey string, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("conversation_key = ?", conversationKey).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// MarkRead flips the reader's flag on every message addressed to them. Messages
// written after the update are not affected.
func (r *GormChatRepository) MarkRead(ctx context.Context, conversationKey, readerID string, readerIsAdmin bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("conversation_key = ? AND recipient_id = ?", conversationKey, readerID).
		Update(readColumn(readerIsAdmin), true)
	return result.RowsAffected, result.Error
}

// CountUnread returns unread message counts keyed by sender
func (r *GormChatRepository) CountUnread(ctx context.Context, readerID string, readerIsAdmin bool) (map[string]int64, error) {
	type row struct {
		SenderID string
		Count    int64
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Select("sender_id, COUNT(*) AS count").
		Where("recipient_id = ? AND "+readColumn(readerIsAdmin)+" = ?", readerID, false).
		Group("sender_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.SenderID] = r.Count
	}
	return counts, nil
}

func readColumn(readerIsAdmin bool) string {
	if readerIsAdmin {
		return "read_by_admin"
	}
	return "read_by_employee"
}
