package models

import "time"

// TeamMember is one entry of a team's employee list. The composite key gives
// the list set semantics.
type TeamMember struct {
	TeamID   string    `gorm:"type:varchar(36);primarykey" json:"team_id"`
	UserID   string    `gorm:"type:varchar(36);primarykey" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Team Team `gorm:"foreignKey:TeamID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
