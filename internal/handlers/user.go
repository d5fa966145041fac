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
)

type UserHandler struct {
	authService *services.AuthService
	log         logrus.FieldLogger
}

func NewUserHandler(authService *services.AuthService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{authService: authService, log: log}
}

// ListUsers lists users by role, employees by default. Pending signups are
// visible to admins only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	role := models.Role(c.DefaultQuery("role", string(models.RoleEmployee)))
	if !role.Valid() {
		apierrors.BadRequest(c, "Unknown role")
		return
	}
	if role == models.RolePending && !user.IsAdmin() {
		apierrors.Forbidden(c, "Insufficient permissions")
		return
	}

	users, err := h.authService.ListUsersByRole(c.Request.Context(), role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": dto.ToUserDTOs(users)})
}
