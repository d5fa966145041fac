package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/services"
)

type TeamHandler struct {
	teamService *services.TeamService
	log         logrus.FieldLogger
}

func NewTeamHandler(teamService *services.TeamService, log logrus.FieldLogger) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		log:         log,
	}
}

// CreateTeam creates an empty team owned by the current admin
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTeamRequest struct {
		Name string `json:"name" binding:"required,max=255"`
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), req.Name, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team))
}

// ListTeams returns the teams the user owns (admins) or has joined (employees)
func (h *TeamHandler) ListTeams(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	teams, err := h.teamService.ListTeams(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"teams": dto.ToTeamDTOs(teams)})
}

// GetTeam returns a team with its employees
func (h *TeamHandler) GetTeam(c *gin.Context) {
	team, err := h.teamService.GetTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDetailDTO(*team))
}

// JoinTeam adds the current user to the team
func (h *TeamHandler) JoinTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	team, err := h.teamService.JoinTeam(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

// RemoveMember deletes the member's tasks and removes them from the team
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.teamService.RemoveMember(c.Request.Context(), c.Param("id"), userID, c.Param("user_id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

// DeleteTeam deletes the team. Tasks of its members are kept.
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.teamService.DeleteTeam(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Team deleted successfully"})
}
