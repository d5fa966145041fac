package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/services"
)

func TestRespondError_CascadeFailureHidesTaskDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, hook := test.NewNullLogger()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/teams/t1/members/u1", nil)

	cause := errors.Join(fmt.Errorf("task task-A: %w", errors.New("store unavailable")))
	respondError(c, log, fmt.Errorf("%w: %w", services.ErrCascadeIncomplete, cause))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, apierrors.ErrCodeOperationFailed, body["code"])
	assert.Equal(t, services.ErrCascadeIncomplete.Error(), body["message"])
	assert.NotContains(t, body, "details")
	assert.NotContains(t, w.Body.String(), "task-A")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Contains(t, fmt.Sprint(entry.Data[logrus.ErrorKey]), "task-A")
}
