package recommendations

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/metrics"
	"github.com/cinematch/backend/internal/models"
	"github.com/cinematch/backend/internal/repository"
	"github.com/cinematch/backend/internal/tmdb"
	"go.uber.org/zap"
)

const (
	AlgorithmCollaborative = "collaborative"
	AlgorithmTFIDF         = "tfidf"

	DefaultLimit = 10
)

// ErrNoPreferences is returned by the content-based path for users without ratings
var ErrNoPreferences = errors.New("no preferences found for this user")

// Engine is the external recommender
type Engine interface {
	Recommend(ctx context.Context, movieIDs, ratings []int, k int) (*CollaborativeResponse, error)
	RecommendContent(ctx context.Context, interactions [][2]int, k int) (*ContentResponse, error)
}

// MetadataProvider resolves catalog ids that are not stored locally
type MetadataProvider interface {
	FetchByID(ctx context.Context, externalID int) (*tmdb.TransformedMovie, error)
}

// PreferenceLister reads a user's ratings
type PreferenceLister interface {
	ListPreferences(ctx context.Context, userID string) ([]repository.PreferenceRow, error)
}

// MovieStore is the local movie mirror
type MovieStore interface {
	FindMoviesByExternalIDs(ctx context.Context, externalIDs []int) (map[int]*models.Movie, error)
	CreateMovie(ctx context.Context, movie *tmdb.TransformedMovie) (*models.Movie, error)
}

// EmbeddingSaver caches the collaborative embedding on the user row
type EmbeddingSaver interface {
	SaveUserEmbedding(ctx context.Context, userID string, embedding []float32) error
}

// ImpressionRecorder stores which titles were shown to whom
type ImpressionRecorder interface {
	RecordImpressions(ctx context.Context, impressions []models.RecommendationImpression) error
}

// RecommendedMovie is a reconciled recommendation. Rank is 1-based and
// contiguous over the returned list; Score is the engine's score for this id.
type RecommendedMovie struct {
	ID          uint     `json:"id,omitempty"`
	ExternalID  int      `json:"tmdbId"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	Year        *int     `json:"year"`
	PosterURL   *string  `json:"posterUrl"`
	Overview    string   `json:"overview"`
	VoteAverage float64  `json:"voteAverage"`
	ReleaseDate *string  `json:"releaseDate"`
	ImdbID      *string  `json:"imdbId,omitempty"`
	Score       float64  `json:"score"`
	Rank        int      `json:"rank"`
	Algorithm   string   `json:"algorithm"`
}

// Result is returned by both recommendation paths. Embedding is only set by
// the collaborative path and IsNewUser only on cold start.
type Result struct {
	Recommendations []RecommendedMovie `json:"recommendations"`
	Embedding       []float32          `json:"embedding,omitempty"`
	TotalCount      int                `json:"totalCount"`
	IsNewUser       bool               `json:"isNewUser,omitempty"`
}

// MarshalJSON writes embedding whenever it is non-nil, so a cold start sends
// an empty list while the content path leaves the key out
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		Embedding *[]float32 `json:"embedding,omitempty"`
	}{plain: plain(r)}
	if r.Embedding != nil {
		out.Embedding = &r.Embedding
	}
	return json.Marshal(out)
}

// Service orchestrates the recommender, the local store and the catalog
type Service struct {
	engine      Engine
	catalog     MetadataProvider
	preferences PreferenceLister
	movies      MovieStore
	users       EmbeddingSaver
	impressions ImpressionRecorder
	concurrency int
}

// Option configures optional Service collaborators
type Option func(*Service)

// WithImpressionRecorder records every served list in the background
func WithImpressionRecorder(r ImpressionRecorder) Option {
	return func(s *Service) { s.impressions = r }
}

// WithReconcileConcurrency bounds parallel catalog lookups during reconciliation
func WithReconcileConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates the recommendation orchestrator
func NewService(engine Engine, catalog MetadataProvider, preferences PreferenceLister, movies MovieStore, users EmbeddingSaver, opts ...Option) *Service {
	s := &Service{
		engine:      engine,
		catalog:     catalog,
		preferences: preferences,
		movies:      movies,
		users:       users,
		concurrency: tmdb.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRecommendations runs the collaborative path. A user without ratings gets
// an empty cold-start result instead of an error.
func (s *Service) GetRecommendations(ctx context.Context, userID string, limit int) (*Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	prefs, err := s.preferences.ListPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(prefs) == 0 {
		logger.Log.Debug("Cold start, no preferences", logger.WithUserID(userID))
		return &Result{
			Recommendations: []RecommendedMovie{},
			Embedding:       []float32{},
			TotalCount:      0,
			IsNewUser:       true,
		}, nil
	}

	movieIDs := make([]int, len(prefs))
	ratings := make([]int, len(prefs))
	for i, p := range prefs {
		movieIDs[i] = p.ExternalID
		ratings[i] = p.Rating
	}

	resp, err := s.engine.Recommend(ctx, movieIDs, ratings, limit)
	if err != nil {
		metrics.Get().RecommendationErrors.WithLabelValues(AlgorithmCollaborative, "engine").Inc()
		logger.Log.Error("Recommendation engine call failed", logger.WithUserID(userID), zap.Error(err))
		return nil, err
	}

	embedding := resp.UserEmbedding
	if embedding == nil {
		embedding = []float32{}
	}
	s.persistEmbedding(ctx, userID, embedding)

	recs, err := s.reconcile(ctx, AlgorithmCollaborative, resp.Recommendations, resp.RecommendationScores)
	if err != nil {
		metrics.Get().RecommendationErrors.WithLabelValues(AlgorithmCollaborative, "reconcile").Inc()
		return nil, err
	}

	s.recordImpressions(userID, AlgorithmCollaborative, recs)
	metrics.Get().RecommendationsServed.WithLabelValues(AlgorithmCollaborative).Inc()

	return &Result{
		Recommendations: recs,
		Embedding:       embedding,
		TotalCount:      len(recs),
	}, nil
}

// GetContentBasedRecommendations runs the TF-IDF path. Unlike the
// collaborative path it fails with ErrNoPreferences for users without ratings.
func (s *Service) GetContentBasedRecommendations(ctx context.Context, userID string, limit int) (*Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	prefs, err := s.preferences.ListPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(prefs) == 0 {
		return nil, ErrNoPreferences
	}

	interactions := make([][2]int, len(prefs))
	for i, p := range prefs {
		interactions[i] = [2]int{p.ExternalID, p.Rating}
	}

	resp, err := s.engine.RecommendContent(ctx, interactions, limit)
	if err != nil {
		metrics.Get().RecommendationErrors.WithLabelValues(AlgorithmTFIDF, "engine").Inc()
		logger.Log.Error("Content recommendation call failed", logger.WithUserID(userID), zap.Error(err))
		return nil, err
	}

	recs, err := s.reconcile(ctx, AlgorithmTFIDF, resp.Recommendations, resp.RecommendationScores)
	if err != nil {
		metrics.Get().RecommendationErrors.WithLabelValues(AlgorithmTFIDF, "reconcile").Inc()
		return nil, err
	}

	s.recordImpressions(userID, AlgorithmTFIDF, recs)
	metrics.Get().RecommendationsServed.WithLabelValues(AlgorithmTFIDF).Inc()

	return &Result{
		Recommendations: recs,
		TotalCount:      len(recs),
	}, nil
}

// persistEmbedding writes the embedding cache. Failures are logged and counted, never returned.
func (s *Service) persistEmbedding(ctx context.Context, userID string, embedding []float32) {
	if s.users == nil || len(embedding) == 0 {
		return
	}
	if err := s.users.SaveUserEmbedding(ctx, userID, embedding); err != nil {
		metrics.Get().EmbeddingPersistFailure.Inc()
		logger.WarnWithFields("Failed to persist user embedding", err, logger.WithUserID(userID))
	}
}

// recordImpressions stores the served list off the request path
func (s *Service) recordImpressions(userID, algorithm string, recs []RecommendedMovie) {
	if s.impressions == nil || len(recs) == 0 {
		return
	}

	rows := make([]models.RecommendationImpression, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.RecommendationImpression{
			UserID:     userID,
			MovieID:    r.ID,
			ExternalID: r.ExternalID,
			Source:     algorithm,
			Position:   r.Rank,
			Score:      r.Score,
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.impressions.RecordImpressions(ctx, rows); err != nil {
			logger.WarnWithFields("Failed to record impressions", err, logger.WithUserID(userID))
		}
	}()
}
