package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/services"
)

// ApprovalHandler redeems emailed admin approval links
type ApprovalHandler struct {
	approval *services.ApprovalService
	log      logrus.FieldLogger
}

func NewApprovalHandler(approval *services.ApprovalService, log logrus.FieldLogger) *ApprovalHandler {
	return &ApprovalHandler{approval: approval, log: log}
}

// Approve promotes the pending user named by the token
func (h *ApprovalHandler) Approve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		apierrors.BadRequest(c, "token is required")
		return
	}

	user, err := h.approval.Approve(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.WithField("user_id", user.ID).Info("Admin signup approved")
	c.JSON(http.StatusOK, gin.H{
		"message": "Admin access granted",
		"user":    dto.ToUserDTO(*user),
	})
}
