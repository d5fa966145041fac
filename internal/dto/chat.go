package dto

import (
	"time"

	"github.com/yukikurage/team-task-api/internal/models"
)

// ChatMessageDTO represents a chat message in API responses
type ChatMessageDTO struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	SenderID       string    `json:"sender_id"`
	RecipientID    string    `json:"recipient_id"`
	Timestamp      time.Time `json:"timestamp"`
	IsAdmin        bool      `json:"is_admin"`
	ReadByEmployee bool      `json:"read_by_employee"`
	ReadByAdmin    bool      `json:"read_by_admin"`
}

// ConversationDTO is one page of a conversation
type ConversationDTO struct {
	ConversationKey string           `json:"conversation_key"`
	Messages        []ChatMessageDTO `json:"messages"`
}

// ToChatMessageDTO converts a ChatMessage model
func ToChatMessageDTO(m models.ChatMessage) ChatMessageDTO {
	return ChatMessageDTO{
		ID:             m.ID,
		Text:           m.Text,
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		Timestamp:      m.CreatedAt,
		IsAdmin:        m.IsAdmin,
		ReadByEmployee: m.ReadByEmployee,
		ReadByAdmin:    m.ReadByAdmin,
	}
}

// ToConversationDTO converts the messages of one conversation
func ToConversationDTO(key string, msgs []models.ChatMessage) ConversationDTO {
	out := make([]ChatMessageDTO, len(msgs))
	for i, m := range msgs {
		out[i] = ToChatMessageDTO(m)
	}
	return ConversationDTO{ConversationKey: key, Messages: out}
}
