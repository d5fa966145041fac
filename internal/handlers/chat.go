package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
	log         logrus.FieldLogger
}

func NewChatHandler(chatService *services.ChatService, log logrus.FieldLogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		log:         log,
	}
}

// ListMessages returns the conversation with :peer_id, oldest first
func (h *ChatHandler) ListMessages(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid limit")
			return
		}
		limit = n
	}

	peerID := c.Param("peer_id")
	msgs, err := h.chatService.ListMessages(c.Request.Context(), user.ID, peerID, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationDTO(services.ConversationKey(user.ID, peerID), msgs))
}

// SendMessage sends a message to :peer_id
func (h *ChatHandler) SendMessage(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type SendMessageRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), user, c.Param("peer_id"), req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToChatMessageDTO(*msg))
}

// MarkRead marks the messages :peer_id sent to the current user as read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	n, err := h.chatService.MarkRead(c.Request.Context(), user, c.Param("peer_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": n})
}

// UnreadCounts returns unread message counts keyed by sender
func (h *ChatHandler) UnreadCounts(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	counts, err := h.chatService.UnreadCounts(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": counts})
}
