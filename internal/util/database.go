package util

import (
	stderrors "errors"

	"github.com/cinematch/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HandleDBError maps store errors to responses. It returns true when a
// response was written.
func HandleDBError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, gorm.ErrRecordNotFound) || stderrors.Is(err, repository.ErrUserNotFound) {
		RespondNotFound(c, resourceName)
		return true
	}

	RespondInternalError(c, "Failed to fetch "+resourceName)
	return true
}
