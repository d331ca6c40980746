package auth

import (
	"context"
	"testing"
	"time"

	"github.com/cinematch/backend/internal/repository"
	"github.com/cinematch/backend/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *Service
}

// SetupTest gives every test a fresh database
func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	suite.authService = NewService(repository.NewUserRepository(suite.db), []byte("test_jwt_secret_key"))
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) register(email, password string) *AuthResponse {
	resp, err := suite.authService.Register(context.Background(), RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: password,
	})
	require.NoError(suite.T(), err)
	return resp
}

func (suite *AuthServiceTestSuite) TestRegister() {
	t := suite.T()

	authResp := suite.register("test@cinematch.dev", "password123")
	assert.NotEmpty(t, authResp.Token)
	assert.NotEmpty(t, authResp.User.ID)
	assert.Equal(t, "test@cinematch.dev", authResp.User.Email)
	assert.NotEqual(t, "password123", authResp.User.PasswordHash)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), authResp.ExpiresAt, time.Minute)

	// duplicate email, any case
	_, err := suite.authService.Register(context.Background(), RegisterRequest{
		Name:     "Other",
		Email:    "TEST@cinematch.dev",
		Password: "password456",
	})
	assert.Equal(t, ErrUserExists, err)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	t := suite.T()
	ctx := context.Background()
	suite.register("login@test.com", "testpass123")

	authResp, err := suite.authService.Login(ctx, LoginRequest{Email: "login@test.com", Password: "testpass123"})
	require.NoError(t, err)
	assert.NotEmpty(t, authResp.Token)

	_, err = suite.authService.Login(ctx, LoginRequest{Email: "nonexistent@test.com", Password: "testpass123"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = suite.authService.Login(ctx, LoginRequest{Email: "login@test.com", Password: "wrongpassword"})
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = suite.authService.Login(ctx, LoginRequest{Email: "LOGIN@TEST.COM", Password: "testpass123"})
	assert.NoError(t, err)
}

func (suite *AuthServiceTestSuite) TestJWTTokenValidation() {
	t := suite.T()
	authResp := suite.register("jwt@test.com", "password123")

	userID, err := suite.authService.ValidateToken(authResp.Token)
	require.NoError(t, err)
	assert.Equal(t, authResp.User.ID, userID)

	_, err = suite.authService.ValidateToken("invalid.token.here")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(repository.NewUserRepository(suite.db), []byte("another_secret"))
	_, err = other.ValidateToken(authResp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestExpiredToken() {
	t := suite.T()
	authResp := suite.register("old@test.com", "password123")

	suite.authService.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, err := suite.authService.generateAuthResponse(&authResp.User)
	require.NoError(t, err)
	suite.authService.now = time.Now

	_, err = suite.authService.ValidateToken(expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestRejectsOtherSigningMethods() {
	t := suite.T()
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "someone",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = suite.authService.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestProfileAndPassword() {
	t := suite.T()
	ctx := context.Background()
	a := suite.register("a@test.com", "password123")
	suite.register("b@test.com", "password123")

	name := "Renamed"
	updated, err := suite.authService.UpdateProfile(ctx, a.User.ID, UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	taken := "B@test.com"
	_, err = suite.authService.UpdateProfile(ctx, a.User.ID, UpdateProfileRequest{Email: &taken})
	assert.Equal(t, ErrUserExists, err)

	profile, err := suite.authService.GetProfile(ctx, a.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@test.com", profile.Email)

	err = suite.authService.ChangePassword(ctx, a.User.ID, ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newpassword1"})
	assert.Equal(t, ErrInvalidCredentials, err)

	require.NoError(t, suite.authService.ChangePassword(ctx, a.User.ID, ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "newpassword1"}))
	_, err = suite.authService.Login(ctx, LoginRequest{Email: "a@test.com", Password: "newpassword1"})
	assert.NoError(t, err)

	_, err = suite.authService.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
