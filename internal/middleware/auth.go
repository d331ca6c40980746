package middleware

import (
	"strings"

	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenValidator resolves a bearer token to a user id
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

// AuthMiddleware requires "Authorization: Bearer <jwt>". A missing token is
// 401; a token that fails validation is 403. On success the user id is
// stored under util.ContextUserIDKey.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			util.RespondUnauthorized(c, "Authentication token required")
			return
		}

		userID, err := validator.ValidateToken(token)
		if err != nil {
			logger.Log.Debug("Rejected token", logger.WithIP(c.ClientIP()), zap.Error(err))
			util.RespondForbidden(c, "Invalid token")
			return
		}

		c.Set(util.ContextUserIDKey, userID)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
