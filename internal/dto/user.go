package dto

import "github.com/yukikurage/team-task-api/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID      string      `json:"id"`
	Email   string      `json:"email"`
	Name    string      `json:"name"`
	Role    models.Role `json:"role"`
	Admin   bool        `json:"admin"`
	TeamIDs []string    `json:"team_ids"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	teamIDs := []string(user.TeamIDs)
	if teamIDs == nil {
		teamIDs = []string{}
	}
	return UserDTO{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Role:    user.Role,
		Admin:   user.Admin,
		TeamIDs: teamIDs,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

// SignupResponse is returned after signup
type SignupResponse struct {
	User              UserDTO `json:"user"`
	ApprovalRequested bool    `json:"approval_requested"`
}
