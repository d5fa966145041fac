package constants

import "time"

// Session and context keys
const (
	SessionCookieName = "task_session"
	ContextKeyUserID  = "user_id"
	ContextKeyUser    = "current_user"
	ContextKeyTask    = "task"
	ContextKeyTeam    = "team"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Validation limits
const (
	MinPasswordLength   = 8
	MaxAIGeneratedTasks = 20
	DefaultMessageLimit = 200
	MaxMessageLimit     = 1000
)

// Admin approval
const (
	ApprovalTokenPurpose = "admin_approval"
	DefaultApprovalTTL   = 48 * time.Hour
)

// Realtime topics
const (
	TopicUserTasksPrefix = "tasks:user:"
	TopicTeamPrefix      = "teams:"
	TopicChatPrefix      = "chats:"
	TopicUserPrefix      = "users:"
)

// Deadline formats accepted on input, in order of preference.
var DeadlineLayouts = []string{time.RFC3339, "2006-01-02"}

// DeadlineDisplayLayout is the dd/mm/yyyy form used in notification emails.
const DeadlineDisplayLayout = "02/01/2006"
