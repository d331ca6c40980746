package models

import "time"

// UserPreference is a user's rating of a movie. There is at most one row per
// (user, movie) pair; re-rating overwrites it.
type UserPreference struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_movie" json:"userId"`
	MovieID   uint      `gorm:"not null;uniqueIndex:idx_user_movie" json:"movieId"`
	Rating    int       `gorm:"not null" json:"rating"`
	Seen      bool      `gorm:"default:false" json:"seen"`
	Movie     *Movie    `gorm:"foreignKey:MovieID" json:"movie,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
