package handlers

import (
	"net/http"
	"testing"

	"github.com/cinematch/backend/internal/auth"
	"github.com/cinematch/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AuthHandlersTestSuite struct {
	suite.Suite
	auth   *auth.MockAuthService
	router *gin.Engine
	user   *models.User
}

func (s *AuthHandlersTestSuite) SetupTest() {
	s.auth = auth.NewMockAuthService()
	s.user = &models.User{ID: "user-1", Name: "Ada", Email: "ada@example.com"}
	s.auth.AddUser(s.user, "correct-horse")
	s.router = newRouter(NewHandlers(s.auth), s.auth)
}

func (s *AuthHandlersTestSuite) TestRegister() {
	w := doRequest(s.router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "longenough",
	})
	s.Equal(http.StatusCreated, w.Code)
	body := decode(w)
	s.Equal("User created successfully", body["message"])
	s.NotEmpty(body["token"])

	w = doRequest(s.router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada again", "email": "ada@example.com", "password": "longenough",
	})
	s.Equal(http.StatusConflict, w.Code)

	w = doRequest(s.router, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "nope"})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AuthHandlersTestSuite) TestLogin() {
	w := doRequest(s.router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "correct-horse",
	})
	s.Equal(http.StatusOK, w.Code)
	s.Equal(auth.TokenFor("user-1"), decode(w)["token"])

	for _, creds := range []map[string]string{
		{"email": "ada@example.com", "password": "wrong"},
		{"email": "nobody@example.com", "password": "whatever"},
	} {
		w = doRequest(s.router, http.MethodPost, "/api/auth/login", "", creds)
		s.Equal(http.StatusUnauthorized, w.Code)
		s.Equal("Invalid email or password", decode(w)["error"])
	}
}

func (s *AuthHandlersTestSuite) TestProfile() {
	w := doRequest(s.router, http.MethodGet, "/api/auth/profile", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Authentication token required", decode(w)["error"])

	w = doRequest(s.router, http.MethodGet, "/api/auth/profile", "garbage", nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("Invalid token", decode(w)["error"])

	w = doRequest(s.router, http.MethodGet, "/api/auth/profile", auth.TokenFor("user-1"), nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "ada@example.com")

	w = doRequest(s.router, http.MethodGet, "/api/auth/profile", auth.TokenFor("ghost"), nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AuthHandlersTestSuite) TestUpdateProfile() {
	s.auth.AddUser(&models.User{ID: "user-2", Email: "taken@example.com"}, "pw")

	w := doRequest(s.router, http.MethodPut, "/api/auth/profile", auth.TokenFor("user-1"), map[string]string{"name": "Ada L."})
	s.Equal(http.StatusOK, w.Code)
	s.Equal("Ada L.", s.user.Name)

	w = doRequest(s.router, http.MethodPut, "/api/auth/profile", auth.TokenFor("user-1"), map[string]string{"email": "taken@example.com"})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *AuthHandlersTestSuite) TestChangePassword() {
	token := auth.TokenFor("user-1")

	w := doRequest(s.router, http.MethodPut, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "wrong", "newPassword": "brand-new-pass",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Current password is incorrect", decode(w)["error"])

	w = doRequest(s.router, http.MethodPut, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "correct-horse", "newPassword": "brand-new-pass",
	})
	s.Equal(http.StatusOK, w.Code)

	w = doRequest(s.router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "brand-new-pass",
	})
	s.Equal(http.StatusOK, w.Code)
}

func TestAuthHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlersTestSuite))
}

func TestRegister_InternalError(t *testing.T) {
	mock := auth.NewMockAuthService()
	mock.DefaultError = assert.AnError
	router := newRouter(NewHandlers(mock), mock)

	w := doRequest(router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "longenough",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error creating user", decode(w)["error"])
}
