package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         logrus.FieldLogger
}

func NewTaskHandler(taskService *services.TaskService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// ListTasks returns the tasks visible to the current user.
// Admins can filter by assigned_to and assigned_by; everyone can filter by status.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListTasksInput{
		Actor:      user,
		Pagination: utils.GetPaginationParams(c),
	}
	if v := c.Query("assigned_to"); v != "" {
		input.AssignedTo = &v
	}
	if v := c.Query("assigned_by"); v != "" {
		input.AssignedBy = &v
	}
	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		input.Status = &status
	}
	if v := c.Query("due_before"); v != "" {
		due, err := utils.ParseDeadline(v)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		input.DueBefore = &due
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, input.Pagination, total))
}

// GetTask returns a single task with its comments
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask assigns a new task to an employee and emails them
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title          string   `json:"title" binding:"required,max=255"`
		Description    string   `json:"description" binding:"required"`
		AssignedTo     string   `json:"assigned_to" binding:"required"`
		Deadline       string   `json:"deadline" binding:"required"`
		ReferenceLinks []string `json:"reference_links"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	deadline, err := utils.ParseDeadline(req.Deadline)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	result, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		AssignedTo:     req.AssignedTo,
		AssignedBy:     userID,
		Deadline:       deadline,
		ReferenceLinks: req.ReferenceLinks,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toTaskWriteResponse(result))
}

// DeleteTask removes a task and its comments
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// RequestCompletion marks the caller's task as awaiting the assigner's review
func (h *TaskHandler) RequestCompletion(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	result, err := h.taskService.RequestCompletion(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toTaskWriteResponse(result))
}

// ResolveCompletion accepts or rejects a completion request
func (h *TaskHandler) ResolveCompletion(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type ResolveRequest struct {
		Decision string `json:"decision" binding:"required"`
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.ResolveCompletion(c.Request.Context(), c.Param("id"), userID, services.Decision(req.Decision))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := dto.ResolveResponse{Deleted: task == nil}
	if task != nil {
		taskDTO := dto.ToTaskDTO(*task)
		resp.Task = &taskDTO
	}
	c.JSON(http.StatusOK, resp)
}

// AddComment appends a comment to the task
func (h *TaskHandler) AddComment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CommentRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.taskService.AddComment(c.Request.Context(), c.Param("id"), userID, req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// GenerateTasks extracts draft tasks from free text. Nothing is stored; the
// admin reviews the drafts and creates tasks from them.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required,min=10,max=5000"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	drafts, err := h.taskService.GenerateDrafts(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"drafts": dto.ToDraftDTOs(drafts)})
}

func toTaskWriteResponse(result *services.TaskResult) dto.TaskWriteResponse {
	task := dto.ToTaskDTO(*result.Task)
	return dto.TaskWriteResponse{
		Task:             &task,
		NotificationSent: result.NotificationSent,
	}
}
