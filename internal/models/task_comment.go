package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskComment struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	TaskID    string    `gorm:"type:varchar(36);not null;index" json:"task_id"`
	UserID    string    `gorm:"type:varchar(36);not null" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}

func (c *TaskComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
