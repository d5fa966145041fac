package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/services"
)

func TestAuthHandler_Signup(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "NewUser@Example.com",
		"password": "supersecret",
		"name":     "New User",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.SignupResponse
	decode(t, w, &response)
	require.Equal(t, "newuser@example.com", response.User.Email)
	require.Equal(t, models.RoleEmployee, response.User.Role)
	require.False(t, response.ApprovalRequested)
	require.Empty(t, env.notifier.emails())
}

func TestAuthHandler_Signup_AdminIsPending(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "boss@example.com",
		"password": "supersecret",
		"name":     "Boss",
		"role":     "admin",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.SignupResponse
	decode(t, w, &response)
	require.Equal(t, models.RolePending, response.User.Role)
	require.False(t, response.User.Admin)
	require.True(t, response.ApprovalRequested)

	emails := env.notifier.emails()
	require.Len(t, emails, 1)
	require.Equal(t, []string{testApproverEmail}, emails[0].To)
	require.Contains(t, emails[0].HTMLBody, "/api/admin/approve?token=")
}

func TestAuthHandler_Signup_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"short password", map[string]string{"email": "a@example.com", "password": "short"}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "not-an-email", "password": "supersecret"}, http.StatusBadRequest},
		{"unknown role", map[string]string{"email": "a@example.com", "password": "supersecret", "role": "root"}, http.StatusBadRequest},
		{"missing email", map[string]string{"password": "supersecret"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/auth/signup", tt.body, nil)
			require.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAuthHandler_Signup_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	body := map[string]string{"email": "dup@example.com", "password": "supersecret"}
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/auth/signup", body, nil).Code)

	w := env.do(http.MethodPost, "/api/auth/signup", body, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var apiErr apierrors.APIError
	decode(t, w, &apiErr)
	require.Equal(t, apierrors.ErrCodeConflict, apiErr.Code)
}

func TestAuthHandler_LoginAndMe(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.authService.Signup(context.Background(), services.SignupInput{
		Email:    "existing@example.com",
		Password: "supersecret",
		Name:     "Existing",
	})
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "supersecret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loggedIn dto.UserDTO
	decode(t, w, &loggedIn)
	require.Equal(t, "existing@example.com", loggedIn.Email)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	env.router.ServeHTTP(me, req)

	require.Equal(t, http.StatusOK, me.Code)
	var current dto.UserDTO
	decode(t, me, &current)
	require.Equal(t, loggedIn.ID, current.ID)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.authService.Signup(context.Background(), services.SignupInput{
		Email:    "existing@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "wrongpassword",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/auth/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "Logged out"))
}
