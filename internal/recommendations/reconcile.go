package recommendations

import (
	"context"
	"fmt"

	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/metrics"
	"github.com/cinematch/backend/internal/models"
	"github.com/cinematch/backend/internal/repository"
	"github.com/cinematch/backend/internal/tmdb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// reconcile turns the engine's ranked external ids into full movie records.
// Local rows are used when present; misses are fetched from the catalog and
// stored. Ids whose metadata cannot be fetched are dropped, and ranks are
// assigned over the survivors so they stay 1..N in the engine's order.
func (s *Service) reconcile(ctx context.Context, algorithm string, externalIDs []int, scores []float64) ([]RecommendedMovie, error) {
	if len(externalIDs) == 0 {
		return []RecommendedMovie{}, nil
	}

	local, err := s.movies.FindMoviesByExternalIDs(ctx, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommended movies: %w", err)
	}

	resolved := make([]*models.Movie, len(externalIDs))
	var misses []int
	for i, id := range externalIDs {
		if m, ok := local[id]; ok {
			resolved[i] = m
			continue
		}
		misses = append(misses, i)
	}

	if len(misses) > 0 {
		var g errgroup.Group
		g.SetLimit(s.concurrency)
		for _, i := range misses {
			g.Go(func() error {
				resolved[i] = s.resolveMissing(ctx, externalIDs[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]RecommendedMovie, 0, len(externalIDs))
	dropped := 0
	for i, movie := range resolved {
		if movie == nil {
			dropped++
			continue
		}
		var score float64
		if i < len(scores) {
			score = scores[i]
		}
		out = append(out, toRecommended(movie, score, len(out)+1, algorithm))
	}

	if dropped > 0 {
		metrics.Get().RecommendationsDropped.WithLabelValues(algorithm).Add(float64(dropped))
		logger.Log.Warn("Dropped recommendations without metadata",
			zap.String("algorithm", algorithm),
			zap.Int("dropped", dropped),
			zap.Int("returned", len(out)),
		)
	}
	return out, nil
}

// resolveMissing fetches a title absent from the local mirror and stores it.
// It returns nil when the catalog lookup fails.
func (s *Service) resolveMissing(ctx context.Context, externalID int) *models.Movie {
	fetched, err := s.catalog.FetchByID(ctx, externalID)
	if err != nil {
		logger.Log.Warn("Catalog lookup failed during reconciliation",
			logger.WithExternalID(externalID),
			logger.WithUpstreamStatus(tmdb.StatusCode(err)),
			zap.Error(err),
		)
		return nil
	}

	stored, err := s.movies.CreateMovie(ctx, fetched)
	if err != nil {
		// still serve the catalog record, the row is created on the next miss
		logger.WarnWithFields("Failed to store recommended movie", err, logger.WithExternalID(externalID))
		return repository.MovieFromCatalog(fetched)
	}
	return stored
}

func toRecommended(m *models.Movie, score float64, rank int, algorithm string) RecommendedMovie {
	genres := []string(m.Genres)
	if genres == nil {
		genres = []string{}
	}
	return RecommendedMovie{
		ID:          m.ID,
		ExternalID:  m.ExternalID,
		Title:       m.Title,
		Genres:      genres,
		Year:        m.Year,
		PosterURL:   m.PosterURL,
		Overview:    m.Overview,
		VoteAverage: m.VoteAverage,
		ReleaseDate: m.ReleaseDate,
		ImdbID:      m.ImdbID,
		Score:       score,
		Rank:        rank,
		Algorithm:   algorithm,
	}
}
