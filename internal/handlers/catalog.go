package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/cinematch/backend/internal/errors"
	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/middleware"
	"github.com/cinematch/backend/internal/models"
	"github.com/cinematch/backend/internal/tmdb"
	"github.com/cinematch/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const genresCacheTTL = time.Hour

// respondCatalogError maps TMDB failures. A rejected API key is our fault, so
// it is a 500 with a message that says so; a missing resource stays a 404.
func respondCatalogError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, tmdb.ErrUpstreamAuth):
		util.RespondWithAPIError(c, apierrors.UpstreamAuth())
	case errors.Is(err, tmdb.ErrNotFound):
		util.RespondWithAPIError(c, apierrors.NotFoundMessage("No results found"))
	default:
		logger.Log.Error(fallback, zap.Error(err), logger.WithUpstreamStatus(tmdb.StatusCode(err)))
		util.RespondWithAPIError(c, apierrors.UpstreamError(fallback))
	}
}

func pageParam(c *gin.Context) int {
	return util.ParsePositiveInt(c.Query("page"), 1)
}

// GetGenres lists the seeded genres
// GET /api/genres
func (h *Handlers) GetGenres(c *gin.Context) {
	ctx := c.Request.Context()

	var genres []models.Genre
	err := h.cache.Remember(ctx, "genres", middleware.CacheKey("genres", "all"), genresCacheTTL, &genres, func() (interface{}, error) {
		return h.genres.ListGenres(ctx)
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch genres")
		return
	}
	if genres == nil {
		genres = []models.Genre{}
	}

	c.JSON(http.StatusOK, genres)
}

// Search proxies a TMDB multi search
// GET /api/search?query=&page=
func (h *Handlers) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		util.RespondBadRequest(c, "Missing query parameter")
		return
	}

	results, err := h.catalog.FetchByQuery(c.Request.Context(), query, pageParam(c))
	if err != nil {
		respondCatalogError(c, err, "Search failed")
		return
	}
	c.JSON(http.StatusOK, results)
}

// GenreMovies discovers movies for a genre name from the genre table
// GET /api/genre?genre=&page=
func (h *Handlers) GenreMovies(c *gin.Context) {
	name := c.Query("genre")
	if name == "" {
		util.RespondBadRequest(c, "Missing genre")
		return
	}

	genre, err := h.genres.FindGenreByName(c.Request.Context(), name)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch genre movies")
		return
	}
	if genre == nil {
		util.RespondWithAPIError(c, apierrors.NotFoundMessage("genre unavailable"))
		return
	}

	results, err := h.catalog.FetchByGenre(c.Request.Context(), genre.ID, pageParam(c))
	if err != nil {
		respondCatalogError(c, err, "Failed to fetch genre movies")
		return
	}
	c.JSON(http.StatusOK, results)
}

// PopularMovies returns a page of popular movies
// GET /api/popular?page=
func (h *Handlers) PopularMovies(c *gin.Context) {
	results, err := h.catalog.FetchPopular(c.Request.Context(), pageParam(c))
	if err != nil {
		respondCatalogError(c, err, "Failed to fetch popular movies")
		return
	}
	c.JSON(http.StatusOK, results)
}

// SimilarMovies returns titles TMDB considers similar
// GET /api/similar?tmdbId=
func (h *Handlers) SimilarMovies(c *gin.Context) {
	id := util.ParsePositiveInt(c.Query("tmdbId"), 0)
	if id == 0 {
		util.RespondBadRequest(c, "Missing tmdbId")
		return
	}

	results, err := h.catalog.FetchSimilar(c.Request.Context(), id)
	if err != nil {
		respondCatalogError(c, err, "Failed to fetch similar movies")
		return
	}
	c.JSON(http.StatusOK, results)
}

// MovieDetails returns one normalized movie
// GET /api/movie/:tmdbId
func (h *Handlers) MovieDetails(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("tmdbId"))
	if err != nil || id <= 0 {
		util.RespondBadRequest(c, "Invalid tmdbId")
		return
	}

	movie, err := h.catalog.FetchByID(c.Request.Context(), id)
	if err != nil {
		respondCatalogError(c, err, "Failed to fetch movie")
		return
	}
	c.JSON(http.StatusOK, movie)
}
