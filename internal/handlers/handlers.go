package handlers

import (
	"context"

	"github.com/cinematch/backend/internal/auth"
	"github.com/cinematch/backend/internal/middleware"
	"github.com/cinematch/backend/internal/models"
	"github.com/cinematch/backend/internal/onboarding"
	"github.com/cinematch/backend/internal/recommendations"
	"github.com/cinematch/backend/internal/tmdb"
)

// Catalog is the subset of the TMDB client the proxy routes use
type Catalog interface {
	FetchByID(ctx context.Context, externalID int) (*tmdb.TransformedMovie, error)
	FetchByQuery(ctx context.Context, query string, page int) ([]tmdb.TransformedMovie, error)
	FetchByGenre(ctx context.Context, genreID int, page int) ([]tmdb.TransformedMovie, error)
	FetchPopular(ctx context.Context, page int) ([]tmdb.TransformedMovie, error)
	FetchSimilar(ctx context.Context, externalID int) ([]tmdb.TransformedMovie, error)
}

// GenreStore reads the seeded genre table
type GenreStore interface {
	ListGenres(ctx context.Context) ([]models.Genre, error)
	FindGenreByName(ctx context.Context, name string) (*models.Genre, error)
}

// Recommender serves both recommendation paths
type Recommender interface {
	GetRecommendations(ctx context.Context, userID string, limit int) (*recommendations.Result, error)
	GetContentBasedRecommendations(ctx context.Context, userID string, limit int) (*recommendations.Result, error)
}

// PreferenceIngester stores onboarding ratings
type PreferenceIngester interface {
	Ingest(ctx context.Context, userID string, items []onboarding.Item) (*onboarding.Result, error)
}

// OnboardingStatus flips the onboarding flag on a user
type OnboardingStatus interface {
	SetOnboardingCompleted(ctx context.Context, userID string, completed bool) error
}

// HealthCheck reports whether one dependency is usable
type HealthCheck func(ctx context.Context) error

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth         auth.ServiceInterface
	catalog      Catalog
	genres       GenreStore
	recommender  Recommender
	ingester     PreferenceIngester
	onboarding   OnboardingStatus
	cache        *middleware.CacheManager
	healthChecks map[string]HealthCheck
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService auth.ServiceInterface) *Handlers {
	return &Handlers{
		auth:         authService,
		healthChecks: make(map[string]HealthCheck),
	}
}

// SetCatalog sets the TMDB client used by the proxy routes
func (h *Handlers) SetCatalog(catalog Catalog, genres GenreStore) {
	h.catalog = catalog
	h.genres = genres
}

// SetRecommender sets the recommendation orchestrator
func (h *Handlers) SetRecommender(r Recommender) {
	h.recommender = r
}

// SetOnboarding sets the ingestion pipeline and the user flag writer
func (h *Handlers) SetOnboarding(ingester PreferenceIngester, status OnboardingStatus) {
	h.ingester = ingester
	h.onboarding = status
}

// SetCacheManager enables Redis-backed caching of genre lookups
func (h *Handlers) SetCacheManager(cm *middleware.CacheManager) {
	h.cache = cm
}

// AddHealthCheck registers a dependency probed by GET /health
func (h *Handlers) AddHealthCheck(name string, check HealthCheck) {
	h.healthChecks[name] = check
}
