package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/services"
)

func TestApprovalHandler_Approve(t *testing.T) {
	env := newTestEnv(t, nil)

	result, err := env.authService.Signup(context.Background(), services.SignupInput{
		Email:    "boss@example.com",
		Password: "supersecret",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, models.RolePending, result.User.Role)

	token, _, err := env.approval.IssueToken(result.User.ID)
	require.NoError(t, err)
	path := "/api/admin/approve?token=" + url.QueryEscape(token)

	w := env.do(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.User
	require.NoError(t, env.db.Where("id = ?", result.User.ID).First(&stored).Error)
	require.Equal(t, models.RoleAdmin, stored.Role)
	require.True(t, stored.Admin)

	// The link is single use
	w = env.do(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestApprovalHandler_InvalidToken(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/admin/approve?token=garbage", nil, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/admin/approve", nil, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApprovalHandler_PendingAdminCannotUseAdminRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	result, err := env.authService.Signup(context.Background(), services.SignupInput{
		Email:    "boss@example.com",
		Password: "supersecret",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/api/teams", map[string]string{"name": "Ops"}, result.User)
	require.Equal(t, http.StatusForbidden, w.Code)
}
