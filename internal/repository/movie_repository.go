package repository

import (
	"context"
	"errors"

	"github.com/cinematch/backend/internal/models"
	"github.com/cinematch/backend/internal/tmdb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovieRepository stores the local copy of catalog titles and genres
type MovieRepository interface {
	// FindMovieByExternalID returns (nil, nil) when the title is not stored yet
	FindMovieByExternalID(ctx context.Context, externalID int) (*models.Movie, error)
	FindMoviesByExternalIDs(ctx context.Context, externalIDs []int) (map[int]*models.Movie, error)
	// CreateMovie inserts the title unless a row with the same external id exists,
	// and returns the stored row either way
	CreateMovie(ctx context.Context, movie *tmdb.TransformedMovie) (*models.Movie, error)

	ListGenres(ctx context.Context) ([]models.Genre, error)
	FindGenreByName(ctx context.Context, name string) (*models.Genre, error)
	UpsertGenres(ctx context.Context, genres []models.Genre) error
}

type movieRepository struct {
	db *gorm.DB
}

// NewMovieRepository creates a new movie repository
func NewMovieRepository(db *gorm.DB) MovieRepository {
	return &movieRepository{db: db}
}

func (r *movieRepository) FindMovieByExternalID(ctx context.Context, externalID int) (*models.Movie, error) {
	var movie models.Movie
	err := r.db.WithContext(ctx).Where("tmdb_id = ?", externalID).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *movieRepository) FindMoviesByExternalIDs(ctx context.Context, externalIDs []int) (map[int]*models.Movie, error) {
	found := make(map[int]*models.Movie, len(externalIDs))
	if len(externalIDs) == 0 {
		return found, nil
	}

	var movies []models.Movie
	if err := r.db.WithContext(ctx).Where("tmdb_id IN ?", externalIDs).Find(&movies).Error; err != nil {
		return nil, err
	}
	for i := range movies {
		found[movies[i].ExternalID] = &movies[i]
	}
	return found, nil
}

func (r *movieRepository) CreateMovie(ctx context.Context, movie *tmdb.TransformedMovie) (*models.Movie, error) {
	if movie == nil || movie.ExternalID == 0 {
		return nil, ErrInvalidInput
	}

	row := MovieFromCatalog(movie)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tmdb_id"}},
			DoNothing: true,
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}

	// A concurrent creator may have won the insert; read back the stored row
	var stored models.Movie
	if err := r.db.WithContext(ctx).Where("tmdb_id = ?", movie.ExternalID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *movieRepository) ListGenres(ctx context.Context) ([]models.Genre, error) {
	var genres []models.Genre
	err := r.db.WithContext(ctx).Order("name ASC").Find(&genres).Error
	return genres, err
}

// FindGenreByName returns (nil, nil) for an unknown genre
func (r *movieRepository) FindGenreByName(ctx context.Context, name string) (*models.Genre, error) {
	var genre models.Genre
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&genre).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *movieRepository) UpsertGenres(ctx context.Context, genres []models.Genre) error {
	if len(genres) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).
		Create(&genres).Error
}

// MovieFromCatalog converts a normalized catalog record into an unsaved Movie row
func MovieFromCatalog(movie *tmdb.TransformedMovie) *models.Movie {
	genres := models.StringArray(movie.Genres)
	if genres == nil {
		genres = models.StringArray{}
	}
	return &models.Movie{
		ExternalID:  movie.ExternalID,
		Title:       movie.Title,
		Genres:      genres,
		Year:        movie.Year,
		PosterURL:   movie.PosterURL,
		Overview:    movie.Overview,
		VoteAverage: movie.VoteAverage,
		ReleaseDate: movie.ReleaseDate,
		ImdbID:      movie.ImdbID,
	}
}
