package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecommendationImpression records that a movie was shown to a user in a
// recommendation list. Written asynchronously after the response is built.
type RecommendationImpression struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID     string `gorm:"type:uuid;not null;index:idx_impression_user_time" json:"userId"`
	MovieID    uint   `gorm:"not null;index" json:"movieId"`
	ExternalID int    `gorm:"column:tmdb_id;not null" json:"tmdbId"`

	Source   string  `gorm:"not null;index" json:"source"` // "collaborative" or "tfidf"
	Position int     `gorm:"not null" json:"position"`     // 1-based rank
	Score    float64 `json:"score"`

	CreatedAt time.Time `gorm:"index:idx_impression_user_time" json:"createdAt"`
}

// BeforeCreate assigns an id when the database default is unavailable
func (r *RecommendationImpression) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
