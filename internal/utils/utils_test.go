package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeadline(t *testing.T) {
	d, err := ParseDeadline("2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDeadline("2025-01-10T15:04:05+02:00")
	require.NoError(t, err)
	assert.Equal(t, 13, d.Hour())

	_, err = ParseDeadline("10/01/2025")
	assert.ErrorIs(t, err, ErrInvalidDeadline)
}

func TestNormalizeLinks(t *testing.T) {
	got := NormalizeLinks([]string{" https://a.example \n\n https://b.example", "", "  "})
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, got)
	assert.Empty(t, NormalizeLinks(nil))
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		query string
		want  PaginationParams
	}{
		{"explicit values", "page=3&limit=10", PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"out of range falls back", "page=0&limit=1000", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"missing", "", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/api/tasks?"+tt.query, nil)
			assert.Equal(t, tt.want, GetPaginationParams(c))
		})
	}
}
