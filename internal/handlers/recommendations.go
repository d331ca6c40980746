package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/cinematch/backend/internal/errors"
	"github.com/cinematch/backend/internal/recommendations"
	"github.com/cinematch/backend/internal/util"
	"github.com/gin-gonic/gin"
)

const maxRecommendationLimit = 100

func limitParam(c *gin.Context) int {
	limit := util.ParsePositiveInt(c.Query("limit"), recommendations.DefaultLimit)
	return util.ClampInt(limit, 1, maxRecommendationLimit)
}

func respondRecommendationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recommendations.ErrNoPreferences):
		util.RespondWithAPIError(c, apierrors.NoPreferences())
	case errors.Is(err, recommendations.ErrRecommendationService):
		util.RespondWithAPIError(c, apierrors.BadGateway("Recommendation service unavailable"))
	default:
		util.RespondInternalError(c, "Failed to fetch recommendations")
	}
}

// GetRecommendations returns collaborative recommendations. Users without
// ratings get an empty list with isNewUser set.
// POST|GET /api/recommendations?limit=
func (h *Handlers) GetRecommendations(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result, err := h.recommender.GetRecommendations(c.Request.Context(), userID, limitParam(c))
	if err != nil {
		respondRecommendationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetContentRecommendations returns TF-IDF recommendations
// GET /api/recommendations/content?limit=
func (h *Handlers) GetContentRecommendations(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result, err := h.recommender.GetContentBasedRecommendations(c.Request.Context(), userID, limitParam(c))
	if err != nil {
		respondRecommendationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
