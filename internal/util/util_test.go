package util

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cinematch/backend/internal/errors"
	"github.com/cinematch/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 5, ParseInt("5", 10))
	assert.Equal(t, 10, ParseInt("five", 10))
	assert.Equal(t, -3, ParseInt("-3", 10))

	assert.Equal(t, 10, ParsePositiveInt("-3", 10))
	assert.Equal(t, 10, ParsePositiveInt("0", 10))
	assert.Equal(t, 7, ParsePositiveInt("7", 10))

	assert.Equal(t, 1, ClampInt(0, 1, 50))
	assert.Equal(t, 50, ClampInt(99, 1, 50))
	assert.Equal(t, 20, ClampInt(20, 1, 50))
}

func TestRespondWithAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithAPIError(c, errors.ValidationError("tmdbId", "must be positive"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.True(t, c.IsAborted())

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "must be positive", body.Error)
	assert.Equal(t, "must be positive", body.Message)
	assert.Equal(t, "tmdbId", body.Field)
	assert.Equal(t, string(errors.ErrValidation), body.Code)
}

func TestGetUserIDFromContext(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := GetUserIDFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Set(ContextUserIDKey, "user-1")
	id, ok := GetUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)
}

func TestHandleDBError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", repository.ErrUserNotFound), http.StatusNotFound},
		{fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		assert.True(t, HandleDBError(c, tt.err, "user"))
		assert.Equal(t, tt.status, w.Code)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	assert.False(t, HandleDBError(c, nil, "user"))
}
