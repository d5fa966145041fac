package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/notify"
	"github.com/yukikurage/team-task-api/internal/realtime"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/testutil"
	"gorm.io/gorm"
)

const (
	testApproverEmail = "approver@example.com"
	testUserHeader    = "X-Test-User"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Email
}

func (n *recordingNotifier) Send(_ context.Context, email notify.Email) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, email)
	return nil
}

func (n *recordingNotifier) emails() []notify.Email {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Email(nil), n.sent...)
}

type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	notifier    *recordingNotifier
	authService *services.AuthService
	approval    *services.ApprovalService
	taskService *services.TaskService
	teamService *services.TeamService
	chatService *services.ChatService
}

// newTestEnv wires the full route table over SQLite. Requests carrying the
// X-Test-User header are treated as logged in as that user.
func newTestEnv(t *testing.T, broker realtime.Broker) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	log, _ := test.NewNullLogger()
	notifier := &recordingNotifier{}
	renderer := notify.NewRenderer("")

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	chatRepo := repository.NewChatRepository(db)

	approval := services.NewApprovalService(userRepo, notifier, renderer, broker, services.ApprovalConfig{
		Secret:        "test-secret",
		TTL:           time.Hour,
		PublicBaseURL: "http://localhost:8080",
		ApproverEmail: testApproverEmail,
	}, log)
	authService := services.NewAuthService(userRepo, approval, log)
	taskService := services.NewTaskService(taskRepo, userRepo, notifier, renderer, broker, services.TaskServiceConfig{}, log)
	teamService := services.NewTeamService(teamRepo, userRepo, taskRepo, broker, log)
	chatService := services.NewChatService(chatRepo, userRepo, broker, log)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader(testUserHeader); id != "" {
			sessions.Default(c).Set(constants.ContextKeyUserID, id)
		}
		c.Next()
	})

	Routes{
		Auth:     NewAuthHandler(authService, log),
		Approval: NewApprovalHandler(approval, log),
		Users:    NewUserHandler(authService, log),
		Tasks:    NewTaskHandler(taskService, log),
		Teams:    NewTeamHandler(teamService, log),
		Chats:    NewChatHandler(chatService, log),
		Stream:   NewStreamHandler(broker, authService, taskService, teamService, chatService, log),
		Health:   NewHealthHandler(db, nil),
		UserRepo: userRepo,
		TaskRepo: taskRepo,
		TeamRepo: teamRepo,
	}.Register(r)

	return &testEnv{
		db:          db,
		router:      r,
		notifier:    notifier,
		authService: authService,
		approval:    approval,
		taskService: taskService,
		teamService: teamService,
		chatService: chatService,
	}
}

// do performs a request as the given user; a nil user sends no session
func (e *testEnv) do(method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set(testUserHeader, user.ID)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func (e *testEnv) createTask(t *testing.T, admin, assignee *models.User) *models.Task {
	t.Helper()
	result, err := e.taskService.CreateTask(context.Background(), services.CreateTaskInput{
		Title:       "Prepare slides",
		Description: "Slides for the Monday review",
		AssignedTo:  assignee.ID,
		AssignedBy:  admin.ID,
		Deadline:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return result.Task
}
