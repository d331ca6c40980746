package onboarding

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/cinematch/backend/internal/models"
	"github.com/cinematch/backend/internal/repository"
	"github.com/cinematch/backend/internal/testutil"
	"github.com/cinematch/backend/internal/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type stubCatalog struct {
	mu     sync.Mutex
	movies map[int]*tmdb.TransformedMovie
	calls  map[int]int
}

func (s *stubCatalog) FetchByID(_ context.Context, id int) (*tmdb.TransformedMovie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[int]int{}
	}
	s.calls[id]++
	if m, ok := s.movies[id]; ok {
		return m, nil
	}
	return nil, &tmdb.StatusError{StatusCode: http.StatusNotFound, Path: "/movie"}
}

func intPtr(v int) *int { return &v }

type PipelineTestSuite struct {
	suite.Suite
	db       *gorm.DB
	catalog  *stubCatalog
	pipeline *Pipeline
}

func (s *PipelineTestSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	testutil.CreateUser(s.T(), s.db, "user-1", "u1@test.com")

	s.catalog = &stubCatalog{movies: map[int]*tmdb.TransformedMovie{
		1: {ExternalID: 1, Title: "One", Genres: []string{"Drama"}},
		3: {ExternalID: 3, Title: "Three", Genres: []string{}},
	}}
	s.pipeline = NewPipeline(
		repository.NewUserRepository(s.db),
		repository.NewMovieRepository(s.db),
		repository.NewPreferenceRepository(s.db),
		s.catalog,
	)
}

func TestPipelineTestSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

func (s *PipelineTestSuite) TestPartialBatch() {
	result, err := s.pipeline.Ingest(context.Background(), "user-1", []Item{
		{TmdbID: intPtr(1), Rating: 5, Seen: true},
		{TmdbID: nil, Rating: 4},
		{TmdbID: intPtr(2), Rating: 3},
	})
	s.Require().NoError(err)
	s.True(result.Saved())

	s.Require().Len(result.Successful, 1)
	s.Equal(1, result.Successful[0].TmdbID)
	s.Equal(5, result.Successful[0].Rating)
	s.True(result.Successful[0].Seen)
	s.NotZero(result.Successful[0].MovieID)

	s.Equal([]Failure{
		{TmdbID: nil, Reason: ReasonMissingExternalID},
		{TmdbID: intPtr(2), Reason: ReasonMetadataFetch},
	}, result.Failed)
}

func (s *PipelineTestSuite) TestMalformedItemFailsAlone() {
	items := ParseItems([]json.RawMessage{
		json.RawMessage(`{"tmdbId": 1, "rating": 5}`),
		json.RawMessage(`{"tmdbId": 3, "rating": "five"}`),
	})

	result, err := s.pipeline.Ingest(context.Background(), "user-1", items)
	s.Require().NoError(err)
	s.Require().Len(result.Successful, 1)
	s.Equal(1, result.Successful[0].TmdbID)
	s.Equal([]Failure{{TmdbID: intPtr(3), Reason: ReasonMalformedItem}}, result.Failed)
	s.Zero(s.catalog.calls[3])
}

func (s *PipelineTestSuite) TestFindOrCreateUniqueness() {
	ctx := context.Background()
	_, err := s.pipeline.Ingest(ctx, "user-1", []Item{{TmdbID: intPtr(3), Rating: 2}})
	s.Require().NoError(err)
	result, err := s.pipeline.Ingest(ctx, "user-1", []Item{{TmdbID: intPtr(3), Rating: 4, Seen: true}})
	s.Require().NoError(err)
	s.Require().Len(result.Successful, 1)

	var movies int64
	s.Require().NoError(s.db.Model(&models.Movie{}).Where("tmdb_id = ?", 3).Count(&movies).Error)
	s.Equal(int64(1), movies)
	s.Equal(1, s.catalog.calls[3], "second ingestion reuses the stored movie")

	var prefs []models.UserPreference
	s.Require().NoError(s.db.Where("user_id = ?", "user-1").Find(&prefs).Error)
	s.Require().Len(prefs, 1)
	s.Equal(4, prefs[0].Rating)
	s.True(prefs[0].Seen)
}

func (s *PipelineTestSuite) TestLocalMovieSkipsCatalog() {
	movie := testutil.CreateMovie(s.T(), s.db, 99, "Local")

	result, err := s.pipeline.Ingest(context.Background(), "user-1", []Item{{TmdbID: intPtr(99), Rating: 1}})
	s.Require().NoError(err)
	s.Require().Len(result.Successful, 1)
	s.Equal(movie.ID, result.Successful[0].MovieID)
	s.Zero(s.catalog.calls[99])
}

func (s *PipelineTestSuite) TestZeroSuccesses() {
	result, err := s.pipeline.Ingest(context.Background(), "user-1", []Item{
		{TmdbID: intPtr(0)},
		{TmdbID: intPtr(404)},
	})
	s.Require().NoError(err)
	s.False(result.Saved())
	s.Empty(result.Successful)
	s.NotNil(result.Successful)
	s.Len(result.Failed, 2)
}

func (s *PipelineTestSuite) TestUnknownUser() {
	result, err := s.pipeline.Ingest(context.Background(), "ghost", []Item{{TmdbID: intPtr(1), Rating: 5}})
	s.Nil(result)
	s.ErrorIs(err, ErrUserNotFound)
	s.Zero(s.catalog.calls[1])
}

func TestIngest_EmptyBatch(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.CreateUser(t, db, "user-1", "u1@test.com")
	p := NewPipeline(repository.NewUserRepository(db), repository.NewMovieRepository(db),
		repository.NewPreferenceRepository(db), &stubCatalog{})

	result, err := p.Ingest(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.False(t, result.Saved())
	assert.Empty(t, result.Failed)
}

func TestParseItems(t *testing.T) {
	items := ParseItems([]json.RawMessage{
		json.RawMessage(`{"tmdbId": 603, "rating": 5, "seen": true}`),
		json.RawMessage(`{"tmdbId": "abc", "rating": 4}`),
		json.RawMessage(`{"tmdbId": 550, "rating": "four"}`),
		json.RawMessage(`42`),
		json.RawMessage(`{"rating": 3}`),
	})
	require.Len(t, items, 5)

	assert.Equal(t, Item{TmdbID: intPtr(603), Rating: 5, Seen: true}, items[0])
	assert.True(t, items[1].malformed)
	assert.Nil(t, items[1].TmdbID)
	assert.True(t, items[2].malformed)
	assert.Equal(t, intPtr(550), items[2].TmdbID)
	assert.Zero(t, items[2].Rating)
	assert.True(t, items[3].malformed)
	assert.False(t, items[4].malformed)
	assert.Nil(t, items[4].TmdbID)
}
