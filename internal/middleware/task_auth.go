package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-api/internal/constants"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"gorm.io/gorm"
)

// RequireTaskAccess loads the task named by :id. The assignee, the assigner
// and admins may access it.
func RequireTaskAccess(taskRepo repository.TaskRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetCurrentUser(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := taskRepo.FindByID(c.Request.Context(), c.Param("id"), "Comments", "Assignee", "Assigner")
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Task not found")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		if task.AssignedTo != user.ID && task.AssignedBy != user.ID && !user.IsAdmin() {
			// Return 404 instead of 403 to avoid leaking task existence
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	v, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := v.(models.Task)
	return task, ok
}
