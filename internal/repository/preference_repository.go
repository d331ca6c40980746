package repository

import (
	"context"
	"time"

	"github.com/cinematch/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRow is a rating joined with the movie's external id, which is the
// identifier the recommendation engine understands
type PreferenceRow struct {
	MovieID    uint `json:"movieId"`
	ExternalID int  `json:"tmdbId"`
	Rating     int  `json:"rating"`
}

// PreferenceRepository reads and writes user ratings
type PreferenceRepository interface {
	// ListPreferences returns the user's ratings in insertion order
	ListPreferences(ctx context.Context, userID string) ([]PreferenceRow, error)
	// UpsertPreference creates or overwrites the rating for (userID, movieID)
	UpsertPreference(ctx context.Context, userID string, movieID uint, rating int, seen bool) error
}

type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) ListPreferences(ctx context.Context, userID string) ([]PreferenceRow, error) {
	rows := []PreferenceRow{}
	err := r.db.WithContext(ctx).
		Table("user_preferences AS up").
		Select("up.movie_id AS movie_id, m.tmdb_id AS external_id, up.rating AS rating").
		Joins("JOIN movies m ON m.id = up.movie_id").
		Where("up.user_id = ?", userID).
		Order("up.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *preferenceRepository) UpsertPreference(ctx context.Context, userID string, movieID uint, rating int, seen bool) error {
	now := time.Now().UTC()
	pref := &models.UserPreference{
		UserID:    userID,
		MovieID:   movieID,
		Rating:    rating,
		Seen:      seen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "seen", "updated_at"}),
		}).
		Create(pref).Error
}
