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

// RequireTeamAccess loads the team named by :id. Only its owner and members
// may access it.
func RequireTeamAccess(teamRepo repository.TeamRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetCurrentUser(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		team, err := teamRepo.FindByID(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Team not found")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		if team.AdminID != user.ID {
			isMember, err := teamRepo.IsMember(ctx, team.ID, user.ID)
			if err != nil {
				apierrors.InternalError(c, "")
				c.Abort()
				return
			}
			if !isMember {
				// Return 404 instead of 403 to avoid leaking team existence
				apierrors.NotFound(c, "Team not found")
				c.Abort()
				return
			}
		}

		c.Set(constants.ContextKeyTeam, *team)
		c.Next()
	}
}

// RequireTeamOwner allows the request only for the owner of the team loaded
// by RequireTeamAccess
func RequireTeamOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		team, exists := GetTeam(c)
		if !exists {
			apierrors.Forbidden(c, "Team access required")
			c.Abort()
			return
		}

		user, _ := GetCurrentUser(c)
		if user == nil || team.AdminID != user.ID {
			apierrors.Forbidden(c, "Only the team owner can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetTeam retrieves the team loaded by RequireTeamAccess
func GetTeam(c *gin.Context) (models.Team, bool) {
	v, exists := c.Get(constants.ContextKeyTeam)
	if !exists {
		return models.Team{}, false
	}
	team, ok := v.(models.Team)
	return team, ok
}
