package dto

import (
	"time"

	"github.com/yukikurage/team-task-api/internal/models"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Admin     string    `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMemberDTO represents a member in a team
type TeamMemberDTO struct {
	User     UserDTO   `json:"user"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamDetailDTO represents a team with its employees
type TeamDetailDTO struct {
	TeamDTO
	Employees []TeamMemberDTO `json:"employees"`
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team) TeamDTO {
	return TeamDTO{
		ID:        team.ID,
		Name:      team.Name,
		Admin:     team.AdminID,
		CreatedAt: team.CreatedAt,
	}
}

// ToTeamDTOs converts a slice of teams
func ToTeamDTOs(teams []models.Team) []TeamDTO {
	out := make([]TeamDTO, len(teams))
	for i, t := range teams {
		out[i] = ToTeamDTO(t)
	}
	return out
}

// ToTeamDetailDTO converts a team with preloaded members
func ToTeamDetailDTO(team models.Team) TeamDetailDTO {
	members := make([]TeamMemberDTO, len(team.Members))
	for i, m := range team.Members {
		members[i] = TeamMemberDTO{
			User:     ToUserDTO(m.User),
			JoinedAt: m.JoinedAt,
		}
	}

	return TeamDetailDTO{
		TeamDTO:   ToTeamDTO(team),
		Employees: members,
	}
}
