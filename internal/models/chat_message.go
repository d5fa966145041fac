package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatMessage struct {
	ID              string    `gorm:"type:varchar(36);primarykey" json:"id"`
	ConversationKey string    `gorm:"type:varchar(80);not null;index:idx_chat_conversation_created,priority:1" json:"conversation_key"`
	Text            string    `gorm:"type:text;not null" json:"text"`
	SenderID        string    `gorm:"type:varchar(36);not null;index" json:"sender_id"`
	RecipientID     string    `gorm:"type:varchar(36);not null;index" json:"recipient_id"`
	IsAdmin         bool      `gorm:"not null;default:false" json:"is_admin"`
	ReadByEmployee  bool      `gorm:"not null;default:false" json:"read_by_employee"`
	ReadByAdmin     bool      `gorm:"not null;default:false" json:"read_by_admin"`
	CreatedAt       time.Time `gorm:"index:idx_chat_conversation_created,priority:2" json:"timestamp"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
