package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/models"
	"github.com/cinematch/backend/internal/repository"
	"github.com/cinematch/backend/internal/tmdb"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoEmailDomain marks accounts created by SeedDemo so Clean can find them
const DemoEmailDomain = "seed.cinematch.dev"

// DemoPassword is shared by every demo account
const DemoPassword = "cinematch-demo"

// Catalog is the slice of the TMDB client the seeder needs
type Catalog interface {
	FetchGenres(ctx context.Context) ([]tmdb.Genre, error)
	FetchPopular(ctx context.Context, page int) ([]tmdb.TransformedMovie, error)
}

// Seeder fills the database with reference and demo data
type Seeder struct {
	db          *gorm.DB
	catalog     Catalog
	users       repository.UserRepository
	movies      repository.MovieRepository
	preferences repository.PreferenceRepository
	faker       *gofakeit.Faker
}

// NewSeeder creates a seeder. A zero seed picks a random one.
func NewSeeder(db *gorm.DB, catalog Catalog, seed uint64) *Seeder {
	return &Seeder{
		db:          db,
		catalog:     catalog,
		users:       repository.NewUserRepository(db),
		movies:      repository.NewMovieRepository(db),
		preferences: repository.NewPreferenceRepository(db),
		faker:       gofakeit.New(seed),
	}
}

// SeedGenres upserts the TMDB movie genre list and returns how many were written
func (s *Seeder) SeedGenres(ctx context.Context) (int, error) {
	genres, err := s.catalog.FetchGenres(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch genres: %w", err)
	}

	rows := make([]models.Genre, 0, len(genres))
	for _, g := range genres {
		rows = append(rows, models.Genre{ID: g.ID, Name: g.Name})
	}
	if err := s.movies.UpsertGenres(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to upsert genres: %w", err)
	}

	logger.Log.Info("Seeded genres", zap.Int("count", len(rows)))
	return len(rows), nil
}

// DemoOptions sizes the demo dataset
type DemoOptions struct {
	Users          int
	RatingsPerUser int
	PopularPages   int
}

// DemoResult summarizes what SeedDemo wrote
type DemoResult struct {
	Movies  int
	Users   int
	Ratings int
}

// SeedDemo stores a few pages of popular titles and creates fake users who rate
// random subsets of them, giving the collaborative engine something to train on.
func (s *Seeder) SeedDemo(ctx context.Context, opts DemoOptions) (*DemoResult, error) {
	if opts.Users <= 0 {
		opts.Users = 20
	}
	if opts.RatingsPerUser <= 0 {
		opts.RatingsPerUser = 15
	}
	if opts.PopularPages <= 0 {
		opts.PopularPages = 3
	}

	movies, err := s.seedPopularMovies(ctx, opts.PopularPages)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, fmt.Errorf("catalog returned no popular movies")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash demo password: %w", err)
	}

	result := &DemoResult{Movies: len(movies)}
	for i := 0; i < opts.Users; i++ {
		user := &models.User{
			Name:         s.faker.Name(),
			Email:        fmt.Sprintf("%s.%d@%s", strings.ToLower(s.faker.Username()), i, DemoEmailDomain),
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			logger.WarnWithFields("Failed to create demo user", err, zap.String("email", user.Email))
			continue
		}
		result.Users++

		for _, movie := range s.pick(movies, opts.RatingsPerUser) {
			rating := s.faker.IntRange(1, 5)
			if err := s.preferences.UpsertPreference(ctx, user.ID, movie.ID, rating, s.faker.Bool()); err != nil {
				return result, fmt.Errorf("failed to save demo rating: %w", err)
			}
			result.Ratings++
		}
	}

	logger.Log.Info("Seeded demo data",
		zap.Int("movies", result.Movies),
		zap.Int("users", result.Users),
		zap.Int("ratings", result.Ratings),
	)
	return result, nil
}

func (s *Seeder) seedPopularMovies(ctx context.Context, pages int) ([]*models.Movie, error) {
	seen := make(map[int]bool)
	var stored []*models.Movie
	for page := 1; page <= pages; page++ {
		results, err := s.catalog.FetchPopular(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch popular page %d: %w", page, err)
		}
		for i := range results {
			if seen[results[i].ExternalID] {
				continue
			}
			seen[results[i].ExternalID] = true
			movie, err := s.movies.CreateMovie(ctx, &results[i])
			if err != nil {
				logger.WarnWithFields("Failed to store movie", err, logger.WithExternalID(results[i].ExternalID))
				continue
			}
			stored = append(stored, movie)
		}
	}
	return stored, nil
}

// pick returns n distinct movies in random order, or all of them when n exceeds the pool
func (s *Seeder) pick(movies []*models.Movie, n int) []*models.Movie {
	pool := make([]*models.Movie, len(movies))
	copy(pool, movies)
	s.faker.ShuffleAnySlice(pool)
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}

// Clean removes demo accounts and their ratings. Movies and genres are kept.
func (s *Seeder) Clean(ctx context.Context) (int64, error) {
	pattern := "%@" + DemoEmailDomain
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		demoUsers := tx.Model(&models.User{}).Select("id").Where("email LIKE ?", pattern)
		if err := tx.Where("user_id IN (?)", demoUsers).Delete(&models.RecommendationImpression{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id IN (?)", demoUsers).Delete(&models.UserPreference{}).Error; err != nil {
			return err
		}
		result := tx.Where("email LIKE ?", pattern).Delete(&models.User{})
		removed = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clean demo data: %w", err)
	}

	logger.Log.Info("Removed demo users", zap.Int64("count", removed))
	return removed, nil
}
