package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		code   ErrorCode
		status int
	}{
		{"not found", NotFound("movie"), ErrNotFound, http.StatusNotFound},
		{"unauthorized", Unauthorized("no token"), ErrUnauthorized, http.StatusUnauthorized},
		{"upstream auth", UpstreamAuth(), ErrUpstreamAuth, http.StatusInternalServerError},
		{"bad gateway", BadGateway("engine down"), ErrBadGateway, http.StatusBadGateway},
		{"no preferences", NoPreferences(), ErrNoPreferences, http.StatusBadRequest},
		{"validation", ValidationError("rating", "bad"), ErrValidation, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, tt.code.StatusCode())
		})
	}
}

func TestAPIErrorString(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: movie not found", NotFound("movie").Error())
	assert.Equal(t, "VALIDATION_ERROR: bad (field: rating)", ValidationError("rating", "bad").Error())
	assert.Equal(t, "TMDB API authentication failed. Please check your API credentials.", UpstreamAuth().Message)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(nil))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(&APIError{}))
	assert.Equal(t, http.StatusNotFound, StatusOf(NotFound("x")))
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("UNKNOWN").StatusCode())
}
