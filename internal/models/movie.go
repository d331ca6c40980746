package models

import "time"

// Movie is the local record of a catalog title. Rows are created lazily the first
// time a title is rated or recommended and are never updated afterwards.
type Movie struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID  int         `gorm:"column:tmdb_id;uniqueIndex;not null" json:"tmdbId"`
	Title       string      `gorm:"not null" json:"title"`
	Genres      StringArray `gorm:"type:text[]" json:"genres"`
	Year        *int        `json:"year"`
	PosterURL   *string     `gorm:"column:poster_url" json:"posterUrl"`
	Overview    string      `gorm:"type:text" json:"overview"`
	VoteAverage float64     `json:"voteAverage"`
	ReleaseDate *string     `json:"releaseDate"`
	ImdbID      *string     `gorm:"column:imdb_id" json:"imdbId"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Genre is catalog reference data seeded from the TMDB genre list
type Genre struct {
	ID   int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}
