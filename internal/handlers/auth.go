package handlers

import (
	"errors"
	"net/http"

	"github.com/cinematch/backend/internal/auth"
	apierrors "github.com/cinematch/backend/internal/errors"
	"github.com/cinematch/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// Register creates an account and signs the caller in
// POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			util.RespondWithAPIError(c, apierrors.AlreadyExists("user"))
			return
		}
		util.RespondInternalError(c, "Error creating user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "User created successfully",
		"token":     resp.Token,
		"user":      resp.User,
		"expiresAt": resp.ExpiresAt,
	})
}

// Login exchanges credentials for a token
// POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
			util.RespondUnauthorized(c, "Invalid email or password")
			return
		}
		util.RespondInternalError(c, "Login failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetProfile returns the authenticated user
// GET /api/auth/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	user, err := h.auth.GetProfile(c.Request.Context(), userID)
	if util.HandleDBError(c, err, "user") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile changes name and/or email
// PUT /api/auth/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req auth.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), userID, req)
	if errors.Is(err, auth.ErrUserExists) {
		util.RespondWithAPIError(c, apierrors.AlreadyExists("email"))
		return
	}
	if util.HandleDBError(c, err, "user") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword replaces the caller's password
// PUT /api/auth/change-password
func (h *Handlers) ChangePassword(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req auth.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), userID, req)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		util.RespondUnauthorized(c, "Current password is incorrect")
		return
	}
	if util.HandleDBError(c, err, "user") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
