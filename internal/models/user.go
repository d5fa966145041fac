package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
	// RolePending marks an admin signup that has not been approved yet.
	RolePending Role = "pending"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleAdmin, RolePending:
		return true
	}
	return false
}

type User struct {
	ID           string                      `gorm:"type:varchar(36);primarykey" json:"id"`
	Email        string                      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string                      `gorm:"type:varchar(255);not null;default:''" json:"name"`
	PasswordHash string                      `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role                        `gorm:"type:varchar(20);not null;index" json:"role"`
	Admin        bool                        `gorm:"not null;default:false" json:"admin"`
	TeamIDs      datatypes.JSONSlice[string] `json:"team_ids"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.TeamIDs == nil {
		u.TeamIDs = datatypes.JSONSlice[string]{}
	}
	return nil
}

// IsAdmin reports whether the user holds an approved admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
