package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/notify"
	"github.com/yukikurage/team-task-api/internal/realtime"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrDescriptionRequired    = errors.New("description is required")
	ErrDeadlineRequired       = errors.New("deadline is required")
	ErrAssigneeNotFound       = errors.New("assignee does not exist or has no email address")
	ErrNotTaskAssignee        = errors.New("only the assignee can request completion")
	ErrNotTaskAssigner        = errors.New("only the assigner can resolve a completion request")
	ErrInvalidTransition      = errors.New("task status does not allow this action")
	ErrInvalidDecision        = errors.New("decision must be accept or reject")
	ErrCommentRequired        = errors.New("comment text is required")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// Decision is an assigner's answer to a completion request
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// AcceptMode controls what accepting a completion request does to the task
type AcceptMode string

const (
	// AcceptDelete removes accepted tasks
	AcceptDelete AcceptMode = "delete"
	// AcceptComplete keeps accepted tasks with status completed
	AcceptComplete AcceptMode = "complete"
)

// ParseAcceptMode validates a configured accept mode
func ParseAcceptMode(s string) (AcceptMode, error) {
	switch AcceptMode(s) {
	case AcceptDelete, "":
		return AcceptDelete, nil
	case AcceptComplete:
		return AcceptComplete, nil
	}
	return "", fmt.Errorf("unknown task accept mode %q", s)
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo   repository.TaskRepository
	userRepo   repository.UserRepository
	notifier   notify.Notifier
	renderer   *notify.Renderer
	events     eventPublisher
	ai         DraftGenerator
	acceptMode AcceptMode
	log        logrus.FieldLogger
}

// TaskServiceConfig holds optional collaborators and behaviour switches
type TaskServiceConfig struct {
	AcceptMode AcceptMode
	// AI is nil when draft generation is not configured
	AI DraftGenerator
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	notifier notify.Notifier,
	renderer *notify.Renderer,
	broker realtime.Broker,
	cfg TaskServiceConfig,
	log logrus.FieldLogger,
) *TaskService {
	if cfg.AcceptMode == "" {
		cfg.AcceptMode = AcceptDelete
	}
	return &TaskService{
		taskRepo:   taskRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		renderer:   renderer,
		events:     eventPublisher{broker: broker, log: log},
		ai:         cfg.AI,
		acceptMode: cfg.AcceptMode,
		log:        log,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	Description    string
	AssignedTo     string
	AssignedBy     string
	Deadline       time.Time
	ReferenceLinks []string
}

// TaskResult is a task write and whether its notification email went out.
// A failed notification never fails the write.
type TaskResult struct {
	Task             *models.Task
	NotificationSent bool
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Actor      *models.User
	AssignedTo *string
	AssignedBy *string
	Status     *models.TaskStatus
	DueBefore  *time.Time
	Pagination utils.PaginationParams
}

// CreateTask validates and stores a new pending task, then emails the assignee
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*TaskResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if input.Deadline.IsZero() {
		return nil, ErrDeadlineRequired
	}

	if _, err := requireAdmin(ctx, s.userRepo, input.AssignedBy); err != nil {
		return nil, err
	}

	assignee, err := s.userRepo.FindByID(ctx, input.AssignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to find assignee: %w", err)
	}
	if assignee.Email == "" {
		return nil, ErrAssigneeNotFound
	}

	task := &models.Task{
		Title:          title,
		Description:    description,
		AssignedTo:     assignee.ID,
		AssignedBy:     input.AssignedBy,
		Status:         models.TaskStatusPending,
		Deadline:       input.Deadline,
		ReferenceLinks: utils.NormalizeLinks(input.ReferenceLinks),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.events.publish(ctx, realtime.EventTaskCreated, task.ID, taskTopics(task)...)

	email, err := s.renderer.TaskAssignedEmail(notify.TaskAssigned{
		To:          assignee.Email,
		Name:        displayName(assignee),
		Title:       task.Title,
		Description: task.Description,
		Deadline:    task.Deadline,
		Links:       task.ReferenceLinks,
	})
	sent := s.notify(ctx, task, email, err)

	return &TaskResult{Task: task, NotificationSent: sent}, nil
}

// RequestCompletion moves a pending task to requested on behalf of its
// assignee and emails the assigner
func (s *TaskService) RequestCompletion(ctx context.Context, taskID, actorID string) (*TaskResult, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssignedTo != actorID {
		return nil, ErrNotTaskAssignee
	}
	if task.Status != models.TaskStatusPending {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	if err := s.updateFields(ctx, task.ID, map[string]interface{}{
		"status":       models.TaskStatusRequested,
		"completed_at": now,
	}); err != nil {
		return nil, err
	}
	task.Status = models.TaskStatusRequested
	task.CompletedAt = &now

	s.events.publish(ctx, realtime.EventTaskUpdated, task.ID, taskTopics(task)...)

	sent := false
	assigner, err := findUser(ctx, s.userRepo, task.AssignedBy)
	if err != nil {
		s.log.WithError(err).WithField("task_id", task.ID).Error("Failed to resolve assigner for completion notification")
	} else {
		assignee, err := findUser(ctx, s.userRepo, task.AssignedTo)
		if err != nil {
			s.log.WithError(err).WithField("task_id", task.ID).Warn("Failed to resolve assignee for completion notification")
		}
		email, renderErr := s.renderer.CompletionRequestedEmail(notify.CompletionRequested{
			To:        assigner.Email,
			Name:      displayName(assigner),
			Requester: displayName(assignee),
			Title:     task.Title,
			Deadline:  task.Deadline,
		})
		sent = s.notify(ctx, task, email, renderErr)
	}

	return &TaskResult{Task: task, NotificationSent: sent}, nil
}

// ResolveCompletion answers a completion request. Reject returns the task to
// pending. Accept deletes it, or marks it completed in AcceptComplete mode.
// Concurrent resolutions are not coordinated; the last write wins. The
// returned task is nil when the task was deleted.
func (s *TaskService) ResolveCompletion(ctx context.Context, taskID, actorID string, decision Decision) (*models.Task, error) {
	if decision != DecisionAccept && decision != DecisionReject {
		return nil, ErrInvalidDecision
	}

	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssignedBy != actorID {
		return nil, ErrNotTaskAssigner
	}
	if task.Status != models.TaskStatusRequested {
		return nil, ErrInvalidTransition
	}

	switch {
	case decision == DecisionReject:
		if err := s.updateFields(ctx, task.ID, map[string]interface{}{"status": models.TaskStatusPending}); err != nil {
			return nil, err
		}
		task.Status = models.TaskStatusPending

	case s.acceptMode == AcceptComplete:
		if err := s.updateFields(ctx, task.ID, map[string]interface{}{"status": models.TaskStatusCompleted}); err != nil {
			return nil, err
		}
		task.Status = models.TaskStatusCompleted

	default:
		if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
			return nil, fmt.Errorf("failed to delete accepted task: %w", err)
		}
		s.events.publish(ctx, realtime.EventTaskDeleted, task.ID, taskTopics(task)...)
		return nil, nil
	}

	s.events.publish(ctx, realtime.EventTaskUpdated, task.ID, taskTopics(task)...)
	return task, nil
}

// DeleteTask removes a task and its comments. Only admins may delete.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID string) error {
	if _, err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return err
	}

	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.events.publish(ctx, realtime.EventTaskDeleted, task.ID, taskTopics(task)...)
	return nil
}

// AddComment appends a comment to a task
func (s *TaskService) AddComment(ctx context.Context, taskID, actorID, text string) (*models.TaskComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}

	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	comment := &models.TaskComment{
		TaskID: task.ID,
		UserID: actorID,
		Text:   text,
	}
	if err := s.taskRepo.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	s.events.publish(ctx, realtime.EventTaskUpdated, task.ID, taskTopics(task)...)
	return comment, nil
}

// ListTasks lists tasks visible to the actor. Employees only ever see tasks
// assigned to them; admins may filter freely.
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		AssignedTo: input.AssignedTo,
		AssignedBy: input.AssignedBy,
		Status:     input.Status,
		DueBefore:  input.DueBefore,
		Pagination: input.Pagination,
	}
	if !input.Actor.IsAdmin() {
		filter.AssignedTo = &input.Actor.ID
		filter.AssignedBy = nil
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with its comments
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	return s.findTask(ctx, taskID, "Comments", "Assignee", "Assigner")
}

// GenerateDrafts uses AI to extract draft tasks from text. Nothing is stored.
func (s *TaskService) GenerateDrafts(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.ai == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.ai.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}
		if aiTask.Deadline != nil && aiTask.Deadline.Before(cutoff) {
			aiTask.Deadline = nil
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

func (s *TaskService) findTask(ctx context.Context, taskID string, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// updateFields applies a partial update. Zero rows means the task was
// deleted after it was read.
func (s *TaskService) updateFields(ctx context.Context, taskID string, fields map[string]interface{}) error {
	n, err := s.taskRepo.UpdateFields(ctx, taskID, fields)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// notify sends a rendered email and reports whether it went out. Failures
// are logged only.
func (s *TaskService) notify(ctx context.Context, task *models.Task, email notify.Email, renderErr error) bool {
	entry := s.log.WithField("task_id", task.ID)
	if renderErr != nil {
		entry.WithError(renderErr).Error("Failed to render task notification")
		return false
	}
	if err := s.notifier.Send(ctx, email); err != nil {
		entry.WithError(err).WithField("to", email.To).Error("Failed to send task notification")
		return false
	}
	return true
}

func taskTopics(task *models.Task) []string {
	if task.AssignedTo == task.AssignedBy {
		return []string{realtime.UserTasksTopic(task.AssignedTo)}
	}
	return []string{
		realtime.UserTasksTopic(task.AssignedTo),
		realtime.UserTasksTopic(task.AssignedBy),
	}
}

func displayName(user *models.User) string {
	if user == nil {
		return "A team member"
	}
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}
