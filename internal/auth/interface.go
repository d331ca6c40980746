package auth

import (
	"context"

	"github.com/cinematch/backend/internal/models"
)

// ServiceInterface is the auth surface used by handlers and middleware
type ServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)

	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error

	ValidateToken(tokenString string) (string, error)
}

var _ ServiceInterface = (*Service)(nil)
