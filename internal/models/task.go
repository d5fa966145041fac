package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRequested TaskStatus = "requested"
	TaskStatusCompleted TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRequested, TaskStatusCompleted:
		return true
	}
	return false
}

// Tasks are hard-deleted: an accepted or removed task leaves no row behind.
type Task struct {
	ID             string                      `gorm:"type:varchar(36);primarykey" json:"id"`
	Title          string                      `gorm:"not null" json:"title"`
	Description    string                      `gorm:"type:text;not null" json:"description"`
	AssignedTo     string                      `gorm:"type:varchar(36);not null;index" json:"assigned_to"`
	AssignedBy     string                      `gorm:"type:varchar(36);not null;index" json:"assigned_by"`
	Status         TaskStatus                  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Deadline       time.Time                   `gorm:"not null" json:"deadline"`
	ReferenceLinks datatypes.JSONSlice[string] `json:"reference_links"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
	CompletedAt    *time.Time                  `json:"completed_at"`

	// Relations
	Assignee User          `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	Assigner User          `gorm:"foreignKey:AssignedBy" json:"assigner,omitempty"`
	Comments []TaskComment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.ReferenceLinks == nil {
		t.ReferenceLinks = datatypes.JSONSlice[string]{}
	}
	return nil
}
