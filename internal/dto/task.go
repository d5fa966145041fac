package dto

import (
	"time"

	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// CommentDTO represents a task comment
type CommentDTO struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	AssignedTo     string            `json:"assigned_to"`
	AssignedBy     string            `json:"assigned_by"`
	Status         models.TaskStatus `json:"status"`
	Deadline       time.Time         `json:"deadline"`
	ReferenceLinks []string          `json:"reference_links"`
	Comments       []CommentDTO      `json:"comments,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	CompletedAt    *time.Time        `json:"completed_at"`
	Assignee       *UserDTO          `json:"assignee,omitempty"`
	Assigner       *UserDTO          `json:"assigner,omitempty"`
}

// TaskWriteResponse is returned by writes that may send a notification
type TaskWriteResponse struct {
	Task             *TaskDTO `json:"task"`
	NotificationSent bool     `json:"notification_sent"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// DraftDTO is an AI-generated task suggestion
type DraftDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	links := []string(task.ReferenceLinks)
	if links == nil {
		links = []string{}
	}

	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		AssignedTo:     task.AssignedTo,
		AssignedBy:     task.AssignedBy,
		Status:         task.Status,
		Deadline:       task.Deadline,
		ReferenceLinks: links,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		CompletedAt:    task.CompletedAt,
	}

	// Include users if preloaded
	if task.Assignee.ID != "" {
		assignee := ToUserDTO(task.Assignee)
		dto.Assignee = &assignee
	}
	if task.Assigner.ID != "" {
		assigner := ToUserDTO(task.Assigner)
		dto.Assigner = &assigner
	}

	if len(task.Comments) > 0 {
		dto.Comments = make([]CommentDTO, len(task.Comments))
		for i, c := range task.Comments {
			dto.Comments[i] = ToCommentDTO(c)
		}
	}

	return dto
}

// ToCommentDTO converts a TaskComment model
func ToCommentDTO(c models.TaskComment) CommentDTO {
	return CommentDTO{
		ID:        c.ID,
		Text:      c.Text,
		UserID:    c.UserID,
		Timestamp: c.CreatedAt,
	}
}

// ToTaskListResponse converts a page of tasks
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}

// ResolveResponse is returned after a completion request is answered. Task is
// nil when accepting removed the task.
type ResolveResponse struct {
	Task    *TaskDTO `json:"task"`
	Deleted bool     `json:"deleted"`
}

// ToDraftDTOs converts AI-generated drafts
func ToDraftDTOs(drafts []services.GeneratedTask) []DraftDTO {
	out := make([]DraftDTO, len(drafts))
	for i, d := range drafts {
		out[i] = DraftDTO{
			Title:       d.Title,
			Description: d.Description,
			Deadline:    d.Deadline,
		}
	}
	return out
}
