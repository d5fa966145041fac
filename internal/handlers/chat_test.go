package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-task-api/internal/dto"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/testutil"
)

func TestChatHandler_Conversation(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	employee := testutil.CreateUser(t, env.db, "u1@example.com", models.RoleEmployee)

	w := env.do(http.MethodPost, "/api/chats/"+employee.ID+"/messages", map[string]string{"text": "How is it going?"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	var sent dto.ChatMessageDTO
	decode(t, w, &sent)
	require.True(t, sent.IsAdmin)
	require.Equal(t, employee.ID, sent.RecipientID)

	w = env.do(http.MethodPost, "/api/chats/"+admin.ID+"/messages", map[string]string{"text": "Nearly done"}, employee)
	require.Equal(t, http.StatusCreated, w.Code)

	// Both participants read the same conversation
	for _, user := range []*models.User{admin, employee} {
		peer := employee
		if user == employee {
			peer = admin
		}
		w = env.do(http.MethodGet, "/api/chats/"+peer.ID+"/messages", nil, user)
		require.Equal(t, http.StatusOK, w.Code)
		var conv dto.ConversationDTO
		decode(t, w, &conv)
		require.Equal(t, services.ConversationKey(admin.ID, employee.ID), conv.ConversationKey)
		require.Len(t, conv.Messages, 2)
		require.Equal(t, "How is it going?", conv.Messages[0].Text)
		require.Equal(t, "Nearly done", conv.Messages[1].Text)
	}
}

func TestChatHandler_UnreadAndMarkRead(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := testutil.CreateUser(t, env.db, "admin@example.com", models.RoleAdmin)
	employee := testutil.CreateUser(t, env.db, "u1@example.com", models.RoleEmployee)

	for _, text := range []string{"one", "two"} {
		w := env.do(http.MethodPost, "/api/chats/"+employee.ID+"/messages", map[string]string{"text": text}, admin)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	type unreadResponse struct {
		Unread map[string]int64 `json:"unread"`
	}

	w := env.do(http.MethodGet, "/api/chats/unread", nil, employee)
	require.Equal(t, http.StatusOK, w.Code)
	var unread unreadResponse
	decode(t, w, &unread)
	require.Equal(t, int64(2), unread.Unread[admin.ID])

	// The sender has nothing unread
	w = env.do(http.MethodGet, "/api/chats/unread", nil, admin)
	var senderUnread unreadResponse
	decode(t, w, &senderUnread)
	require.Empty(t, senderUnread.Unread)

	w = env.do(http.MethodPost, "/api/chats/"+admin.ID+"/read", nil, employee)
	require.Equal(t, http.StatusOK, w.Code)
	var marked struct {
		Marked int64 `json:"marked"`
	}
	decode(t, w, &marked)
	require.Equal(t, int64(2), marked.Marked)

	w = env.do(http.MethodGet, "/api/chats/unread", nil, employee)
	var after unreadResponse
	decode(t, w, &after)
	require.Empty(t, after.Unread)
}

func TestChatHandler_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	employee := testutil.CreateUser(t, env.db, "u1@example.com", models.RoleEmployee)

	w := env.do(http.MethodPost, "/api/chats/"+employee.ID+"/messages", map[string]string{"text": "me"}, employee)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/chats/nobody/messages", map[string]string{"text": "hi"}, employee)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/chats/nobody/messages?limit=abc", nil, employee)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
