package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/realtime"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/utils"
)

const streamKeepAlive = 25 * time.Second

// snapshotFunc reads the current state a stream re-sends after every event
type snapshotFunc func(ctx context.Context) (interface{}, error)

// endFunc reports whether an event closes the stream instead of refreshing it
type endFunc func(event realtime.Event) bool

// StreamHandler serves server-sent event streams. Each event on the topic
// triggers a fresh snapshot of the watched state.
type StreamHandler struct {
	broker      realtime.Broker
	authService *services.AuthService
	taskService *services.TaskService
	teamService *services.TeamService
	chatService *services.ChatService
	log         logrus.FieldLogger
}

func NewStreamHandler(
	broker realtime.Broker,
	authService *services.AuthService,
	taskService *services.TaskService,
	teamService *services.TeamService,
	chatService *services.ChatService,
	log logrus.FieldLogger,
) *StreamHandler {
	return &StreamHandler{
		broker:      broker,
		authService: authService,
		taskService: taskService,
		teamService: teamService,
		chatService: chatService,
		log:         log,
	}
}

// Tasks streams the tasks assigned to or by the current user
func (h *StreamHandler) Tasks(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	h.stream(c, realtime.UserTasksTopic(user.ID), func(ctx context.Context) (interface{}, error) {
		input := services.ListTasksInput{Actor: user, Pagination: utils.PaginationParams{}}
		if user.IsAdmin() {
			input.AssignedBy = &user.ID
		}
		tasks, total, err := h.taskService.ListTasks(ctx, input)
		if err != nil {
			return nil, err
		}
		return dto.ToTaskListResponse(tasks, input.Pagination, total), nil
	}, nil)
}

// Me streams the current user's own record, so a pending admin sees the
// promotion without polling
func (h *StreamHandler) Me(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	h.stream(c, realtime.UserTopic(userID), func(ctx context.Context) (interface{}, error) {
		user, err := h.authService.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return dto.ToUserDTO(*user), nil
	}, nil)
}

// Team streams a team and its employees. The stream ends when the team is
// deleted or the viewer is removed from it.
func (h *StreamHandler) Team(c *gin.Context) {
	team, exists := middleware.GetTeam(c)
	if !exists {
		apierrors.NotFound(c, "Team not found")
		return
	}
	viewerID, _ := middleware.GetUserID(c)

	h.stream(c, realtime.TeamTopic(team.ID), func(ctx context.Context) (interface{}, error) {
		detail, err := h.teamService.GetTeam(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		return dto.ToTeamDetailDTO(*detail), nil
	}, func(event realtime.Event) bool {
		return event.Type == realtime.EventTeamDeleted ||
			(event.Type == realtime.EventTeamMemberRemoved && event.ID == viewerID)
	})
}

// Chat streams the conversation with :peer_id
func (h *StreamHandler) Chat(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	peerID := c.Param("peer_id")
	if peerID == user.ID {
		respondError(c, h.log, services.ErrInvalidPeer)
		return
	}

	key := services.ConversationKey(user.ID, peerID)
	h.stream(c, realtime.ChatTopic(key), func(ctx context.Context) (interface{}, error) {
		msgs, err := h.chatService.ListMessages(ctx, user.ID, peerID, 0)
		if err != nil {
			return nil, err
		}
		return dto.ToConversationDTO(key, msgs), nil
	}, nil)
}

func (h *StreamHandler) stream(c *gin.Context, topic string, snapshot snapshotFunc, ends endFunc) {
	if h.broker == nil {
		apierrors.ServiceUnavailable(c, "Live updates are not available")
		return
	}

	ctx := c.Request.Context()
	sub, err := h.broker.Subscribe(ctx, topic)
	if err != nil {
		h.log.WithError(err).WithField("topic", topic).Error("Failed to subscribe")
		apierrors.ServiceUnavailable(c, "Live updates are not available")
		return
	}
	defer sub.Close()

	log := h.log.WithField("topic", topic)

	initial, err := snapshot(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("snapshot", initial)
	c.Writer.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		case event, ok := <-sub.Events():
			if !ok {
				return false
			}
			if ends != nil && ends(event) {
				c.SSEvent(event.Type, event)
				return false
			}
			state, err := snapshot(ctx)
			if err != nil {
				log.WithError(err).Warn("Failed to refresh stream snapshot")
				c.SSEvent("error", gin.H{"message": "Failed to refresh"})
				return true
			}
			c.SSEvent(event.Type, state)
			return true
		}
	})
}
