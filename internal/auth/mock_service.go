package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cinematch/backend/internal/models"
	"github.com/google/uuid"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is an in-memory ServiceInterface for handler tests.
// Tokens have the form "mock_token_<userID>".
type MockAuthService struct {
	mu sync.Mutex

	Calls []MockCall

	// Optional overrides
	RegisterFunc      func(req RegisterRequest) (*AuthResponse, error)
	LoginFunc         func(req LoginRequest) (*AuthResponse, error)
	ValidateTokenFunc func(tokenString string) (string, error)

	DefaultError error

	// Users keyed by ID
	Users     map[string]*models.User
	passwords map[string]string
}

// NewMockAuthService creates a mock with no users
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		Calls:     make([]MockCall, 0),
		Users:     make(map[string]*models.User),
		passwords: make(map[string]string),
	}
}

func (m *MockAuthService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockAuthService) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// AddUser adds a user with a plain-text password
func (m *MockAuthService) AddUser(user *models.User, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[user.ID] = user
	m.passwords[user.ID] = password
}

// TokenFor returns the token ValidateToken accepts for userID
func TokenFor(userID string) string {
	return "mock_token_" + userID
}

func (m *MockAuthService) findByEmail(email string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (m *MockAuthService) respond(user *models.User) *AuthResponse {
	return &AuthResponse{
		Token:     TokenFor(user.ID),
		User:      *user,
		ExpiresAt: time.Now().Add(DefaultTokenTTL),
	}
}

func (m *MockAuthService) Register(_ context.Context, req RegisterRequest) (*AuthResponse, error) {
	m.recordCall("Register", req)
	if m.RegisterFunc != nil {
		return m.RegisterFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	if m.findByEmail(req.Email) != nil {
		return nil, ErrUserExists
	}

	user := &models.User{ID: uuid.New().String(), Name: req.Name, Email: req.Email}
	m.AddUser(user, req.Password)
	return m.respond(user), nil
}

func (m *MockAuthService) Login(_ context.Context, req LoginRequest) (*AuthResponse, error) {
	m.recordCall("Login", req)
	if m.LoginFunc != nil {
		return m.LoginFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	user := m.findByEmail(req.Email)
	if user == nil {
		return nil, ErrUserNotFound
	}
	m.mu.Lock()
	ok := m.passwords[user.ID] == req.Password
	m.mu.Unlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return m.respond(user), nil
}

func (m *MockAuthService) GetProfile(_ context.Context, userID string) (*models.User, error) {
	m.recordCall("GetProfile", userID)
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error) {
	m.recordCall("UpdateProfile", userID, req)
	user, err := m.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		if other := m.findByEmail(*req.Email); other != nil && other.ID != userID {
			return nil, ErrUserExists
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	return user, nil
}

func (m *MockAuthService) ChangePassword(_ context.Context, userID string, req ChangePasswordRequest) error {
	m.recordCall("ChangePassword", userID)
	if m.DefaultError != nil {
		return m.DefaultError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.passwords[userID]
	if !ok {
		return ErrUserNotFound
	}
	if current != req.CurrentPassword {
		return ErrInvalidCredentials
	}
	m.passwords[userID] = req.NewPassword
	return nil
}

func (m *MockAuthService) ValidateToken(tokenString string) (string, error) {
	m.recordCall("ValidateToken", tokenString)
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	userID, ok := strings.CutPrefix(tokenString, "mock_token_")
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

var _ ServiceInterface = (*MockAuthService)(nil)
