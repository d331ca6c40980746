// Package onboarding turns a batch of UI ratings into stored preferences.
package onboarding

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/metrics"
	"github.com/cinematch/backend/internal/models"
	"github.com/cinematch/backend/internal/repository"
	"github.com/cinematch/backend/internal/tmdb"
	"go.uber.org/zap"
)

// Failure reasons reported per item
const (
	ReasonMissingExternalID = "missing externalId"
	ReasonMetadataFetch     = "metadata fetch failed"
	ReasonMalformedItem     = "invalid preference"
)

// ErrUserNotFound rejects the whole batch
var ErrUserNotFound = repository.ErrUserNotFound

// Item is one rating as sent by the onboarding UI
type Item struct {
	TmdbID *int `json:"tmdbId"`
	Rating int  `json:"rating"`
	Seen   bool `json:"seen"`

	malformed bool
}

// ParseItems decodes each array element on its own. An element that does not
// decode is kept as a malformed item carrying whatever tmdbId could be read.
func ParseItems(raw []json.RawMessage) []Item {
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		var item Item
		if err := json.Unmarshal(r, &item); err != nil {
			var id struct {
				TmdbID *int `json:"tmdbId"`
			}
			_ = json.Unmarshal(r, &id)
			item = Item{TmdbID: id.TmdbID, malformed: true}
		}
		items = append(items, item)
	}
	return items
}

// Success describes a stored preference
type Success struct {
	TmdbID  int  `json:"tmdbId"`
	MovieID uint `json:"movieId"`
	Rating  int  `json:"rating"`
	Seen    bool `json:"seen"`
}

// Failure describes an item that was skipped
type Failure struct {
	TmdbID *int   `json:"tmdbId"`
	Reason string `json:"reason"`
}

// Result buckets every input item into Successful or Failed
type Result struct {
	Successful []Success `json:"successfulPreferences"`
	Failed     []Failure `json:"failedPreferences,omitempty"`
}

// Saved reports whether at least one preference was stored
func (r *Result) Saved() bool {
	return len(r.Successful) > 0
}

// UserLookup resolves the authenticated user
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// MovieStore is the local movie mirror
type MovieStore interface {
	FindMovieByExternalID(ctx context.Context, externalID int) (*models.Movie, error)
	CreateMovie(ctx context.Context, movie *tmdb.TransformedMovie) (*models.Movie, error)
}

// PreferenceWriter upserts a rating
type PreferenceWriter interface {
	UpsertPreference(ctx context.Context, userID string, movieID uint, rating int, seen bool) error
}

// MetadataProvider fetches titles missing from the local mirror
type MetadataProvider interface {
	FetchByID(ctx context.Context, externalID int) (*tmdb.TransformedMovie, error)
}

// Pipeline ingests onboarding ratings
type Pipeline struct {
	users       UserLookup
	movies      MovieStore
	preferences PreferenceWriter
	catalog     MetadataProvider
}

// NewPipeline creates an ingestion pipeline
func NewPipeline(users UserLookup, movies MovieStore, preferences PreferenceWriter, catalog MetadataProvider) *Pipeline {
	return &Pipeline{
		users:       users,
		movies:      movies,
		preferences: preferences,
		catalog:     catalog,
	}
}

// Ingest stores each item independently. Only an unknown user fails the call;
// per-item problems land in Result.Failed and processing continues.
func (p *Pipeline) Ingest(ctx context.Context, userID string, items []Item) (*Result, error) {
	if _, err := p.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	result := &Result{Successful: []Success{}}
	m := metrics.Get()

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		success, reason := p.ingestOne(ctx, userID, item)
		if reason != "" {
			result.Failed = append(result.Failed, Failure{TmdbID: item.TmdbID, Reason: reason})
			m.IngestedPreferences.WithLabelValues("failed").Inc()
			continue
		}
		result.Successful = append(result.Successful, success)
		m.IngestedPreferences.WithLabelValues("saved").Inc()
	}

	logger.Log.Info("Ingested onboarding preferences",
		logger.WithUserID(userID),
		zap.Int("total", len(items)),
		zap.Int("successful", len(result.Successful)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// ingestOne returns a non-empty reason when the item could not be stored
func (p *Pipeline) ingestOne(ctx context.Context, userID string, item Item) (Success, string) {
	if item.malformed {
		logger.Log.Warn("Skipping malformed preference", logger.WithUserID(userID))
		return Success{}, ReasonMalformedItem
	}
	if item.TmdbID == nil || *item.TmdbID <= 0 {
		logger.Log.Warn("Skipping preference without external id", logger.WithUserID(userID))
		return Success{}, ReasonMissingExternalID
	}
	externalID := *item.TmdbID

	movie, err := p.findOrCreateMovie(ctx, externalID)
	if err != nil {
		if errors.Is(err, errMetadataFetch) {
			return Success{}, ReasonMetadataFetch
		}
		logger.Log.Error("Failed to resolve movie",
			logger.WithUserID(userID), logger.WithExternalID(externalID), zap.Error(err))
		return Success{}, err.Error()
	}

	if err := p.preferences.UpsertPreference(ctx, userID, movie.ID, item.Rating, item.Seen); err != nil {
		logger.Log.Error("Failed to save preference",
			logger.WithUserID(userID), logger.WithExternalID(externalID), zap.Error(err))
		return Success{}, err.Error()
	}

	return Success{
		TmdbID:  externalID,
		MovieID: movie.ID,
		Rating:  item.Rating,
		Seen:    item.Seen,
	}, ""
}

var errMetadataFetch = errors.New(ReasonMetadataFetch)

func (p *Pipeline) findOrCreateMovie(ctx context.Context, externalID int) (*models.Movie, error) {
	movie, err := p.movies.FindMovieByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if movie != nil {
		return movie, nil
	}

	fetched, err := p.catalog.FetchByID(ctx, externalID)
	if err != nil {
		logger.Log.Warn("Catalog lookup failed during ingestion",
			logger.WithExternalID(externalID),
			logger.WithUpstreamStatus(tmdb.StatusCode(err)),
			zap.Error(err),
		)
		return nil, errMetadataFetch
	}

	return p.movies.CreateMovie(ctx, fetched)
}
