package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cinematch/backend/internal/auth"
	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	mockAuth := auth.NewMockAuthService()
	h := NewHandlers(mockAuth)
	h.AddHealthCheck("database", func(context.Context) error { return nil })
	router := newRouter(h, mockAuth)

	w := doRequest(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(w)["status"])

	h.AddHealthCheck("recommender", func(context.Context) error { return errors.New("connection refused") })
	w = doRequest(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	body := decode(w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "ok", "recommender": "connection refused"}, body["checks"])
}
