package repository

import (
	"context"
	"time"

	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// UpdateFields merges the given columns into the stored task. It returns
	// the number of rows touched; zero means the task no longer exists.
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error)

	// Delete hard deletes a task and its comments
	Delete(ctx context.Context, id string) error

	// ListByAssignee returns every task assigned to the user with only the
	// id and assignment columns loaded
	ListByAssignee(ctx context.Context, userID string) ([]models.Task, error)

	// AddComment appends a comment to a task
	AddComment(ctx context.Context, comment *models.TaskComment) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	AssignedTo *string
	AssignedBy *string
	Status     *models.TaskStatus
	DueBefore  *time.Time
	Pagination utils.PaginationParams
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// Create creates a new team
	Create(ctx context.Context, team *models.Team) error

	// FindByID finds a team by ID
	FindByID(ctx context.Context, id string) (*models.Team, error)

	// Delete deletes a team and its member list
	Delete(ctx context.Context, id string) error

	// AddMember adds a member; adding an existing member is a no-op
	AddMember(ctx context.Context, member *models.TeamMember) error

	// RemoveMember removes a member from a team
	RemoveMember(ctx context.Context, teamID, userID string) error

	// IsMember reports whether the user belongs to the team
	IsMember(ctx context.Context, teamID, userID string) (bool, error)

	// ListMembers lists all members of a team with their user records
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)

	// ListByAdmin lists the teams owned by an admin
	ListByAdmin(ctx context.Context, adminID string) ([]models.Team, error)

	// ListByMember lists the teams a user has joined
	ListByMember(ctx context.Context, userID string) ([]models.Team, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// ListByRole lists users holding the given role
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)

	// PromotePending sets role=admin and admin=true for a user whose role is
	// still pending. It reports whether a row changed.
	PromotePending(ctx context.Context, id string) (bool, error)

	// AddTeamID appends a team ID to the user's team list
	AddTeamID(ctx context.Context, userID, teamID string) error

	// RemoveTeamID removes a team ID from the user's team list
	RemoveTeamID(ctx context.Context, userID, teamID string) error
}

// ChatRepository defines the interface for chat message data access
type ChatRepository interface {
	// Create appends a message to its conversation
	Create(ctx context.Context, msg *models.ChatMessage) error

	// ListByConversation lists the most recent messages in ascending time order
	ListByConversation(ctx context.Context, conversationKey string, limit int) ([]models.ChatMessage, error)

	// MarkRead flips the reader's read flag on messages addressed to them
	MarkRead(ctx context.Context, conversationKey, readerID string, readerIsAdmin bool) (int64, error)

	// CountUnread returns unread message counts keyed by sender
	CountUnread(ctx context.Context, readerID string, readerIsAdmin bool) (map[string]int64, error)
}
