package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/constants"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// respondError maps service errors to API responses. Anything unrecognised
// is logged and reported as an internal error.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrDescriptionRequired),
		errors.Is(err, services.ErrDeadlineRequired),
		errors.Is(err, services.ErrAssigneeNotFound),
		errors.Is(err, services.ErrInvalidDecision),
		errors.Is(err, services.ErrCommentRequired),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrMessageTextRequired),
		errors.Is(err, services.ErrInvalidPeer),
		errors.Is(err, services.ErrInvalidApprovalToken),
		errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks),
		errors.Is(err, utils.ErrInvalidDeadline):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrNotAdmin),
		errors.Is(err, services.ErrNotTaskAssignee),
		errors.Is(err, services.ErrNotTaskAssigner),
		errors.Is(err, services.ErrNotTeamOwner):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrTeamMemberMissing),
		errors.Is(err, services.ErrPeerNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrApprovalAlreadyUsed):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		apierrors.InvalidTransition(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured),
		errors.Is(err, services.ErrApproverNotSet):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrCascadeIncomplete):
		log.WithError(err).WithField("path", c.FullPath()).Error("Member removal left tasks behind")
		apierrors.OperationFailed(c, services.ErrCascadeIncomplete.Error(), nil)
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		apierrors.InternalError(c, "")
	}
}
