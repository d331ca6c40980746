// Package testutil provides an in-memory database with the service schema for
// package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cinematch/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter int64

// NewTestDB creates an isolated in-memory SQLite database.
// Tables are created by hand since AutoMigrate emits Postgres-only types
// (uuid defaults, text[], vector).
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Shared cache lets goroutines of one test see the same in-memory database
	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	stmts := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			collaborative_embedding TEXT,
			onboarding_completed INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE movies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tmdb_id INTEGER NOT NULL UNIQUE,
			title TEXT NOT NULL,
			genres TEXT,
			year INTEGER,
			poster_url TEXT,
			overview TEXT,
			vote_average REAL,
			release_date TEXT,
			imdb_id TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE genres (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE user_preferences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			movie_id INTEGER NOT NULL,
			rating INTEGER NOT NULL,
			seen INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE UNIQUE INDEX idx_user_movie ON user_preferences (user_id, movie_id)`,
		`CREATE TABLE recommendation_impressions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			movie_id INTEGER NOT NULL,
			tmdb_id INTEGER NOT NULL,
			source TEXT NOT NULL,
			position INTEGER NOT NULL,
			score REAL,
			created_at DATETIME
		)`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

// CreateUser inserts a user with a fixed password hash
func CreateUser(t *testing.T, db *gorm.DB, id, email string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           id,
		Name:         "Test " + id,
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateMovie inserts a movie keyed by its external id
func CreateMovie(t *testing.T, db *gorm.DB, externalID int, title string) *models.Movie {
	t.Helper()
	year := 2000
	movie := &models.Movie{
		ExternalID: externalID,
		Title:      title,
		Genres:     models.StringArray{"Drama"},
		Year:       &year,
	}
	require.NoError(t, db.Create(movie).Error)
	return movie
}
