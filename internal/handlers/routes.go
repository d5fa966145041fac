package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
)

// Routes bundles the handlers and the repositories the access middleware
// reads from
type Routes struct {
	Auth     *AuthHandler
	Approval *ApprovalHandler
	Users    *UserHandler
	Tasks    *TaskHandler
	Teams    *TeamHandler
	Chats    *ChatHandler
	Stream   *StreamHandler
	Health   *HealthHandler

	UserRepo repository.UserRepository
	TaskRepo repository.TaskRepository
	TeamRepo repository.TeamRepository
}

// Register mounts every API route. Session middleware must already be installed.
func (rt Routes) Register(r gin.IRouter) {
	r.GET("/health", rt.Health.Check)

	api := r.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", rt.Auth.Signup)
		auth.POST("/login", rt.Auth.Login)
		auth.POST("/logout", rt.Auth.Logout)
		auth.GET("/me", middleware.RequireAuth(), rt.Auth.GetCurrentUser)
	}

	// Followed from the approval email, so no session is required
	api.GET("/admin/approve", rt.Approval.Approve)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(), middleware.LoadCurrentUser(rt.UserRepo))

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	taskAccess := middleware.RequireTaskAccess(rt.TaskRepo)
	teamAccess := middleware.RequireTeamAccess(rt.TeamRepo)
	teamOwner := middleware.RequireTeamOwner()

	protected.GET("/users", rt.Users.ListUsers)

	tasks := protected.Group("/tasks")
	{
		tasks.GET("", rt.Tasks.ListTasks)
		tasks.POST("", adminOnly, rt.Tasks.CreateTask)
		tasks.POST("/generate", adminOnly, rt.Tasks.GenerateTasks)
		tasks.GET("/:id", taskAccess, rt.Tasks.GetTask)
		tasks.DELETE("/:id", adminOnly, taskAccess, rt.Tasks.DeleteTask)
		tasks.POST("/:id/request-completion", taskAccess, rt.Tasks.RequestCompletion)
		tasks.POST("/:id/resolve", adminOnly, taskAccess, rt.Tasks.ResolveCompletion)
		tasks.POST("/:id/comments", taskAccess, rt.Tasks.AddComment)
	}

	teams := protected.Group("/teams")
	{
		teams.POST("", adminOnly, rt.Teams.CreateTeam)
		teams.GET("", rt.Teams.ListTeams)
		teams.GET("/:id", teamAccess, rt.Teams.GetTeam)
		teams.DELETE("/:id", teamAccess, teamOwner, rt.Teams.DeleteTeam)
		teams.POST("/:id/join", rt.Teams.JoinTeam)
		teams.DELETE("/:id/members/:user_id", teamAccess, teamOwner, rt.Teams.RemoveMember)
	}

	chats := protected.Group("/chats")
	{
		chats.GET("/unread", rt.Chats.UnreadCounts)
		chats.GET("/:peer_id/messages", rt.Chats.ListMessages)
		chats.POST("/:peer_id/messages", rt.Chats.SendMessage)
		chats.POST("/:peer_id/read", rt.Chats.MarkRead)
	}

	stream := protected.Group("/stream")
	{
		stream.GET("/me", rt.Stream.Me)
		stream.GET("/tasks", rt.Stream.Tasks)
		stream.GET("/teams/:id", teamAccess, rt.Stream.Team)
		stream.GET("/chats/:peer_id", rt.Stream.Chat)
	}
}
