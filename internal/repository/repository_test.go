package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/cinematch/backend/internal/models"
	"github.com/cinematch/backend/internal/testutil"
	"github.com/cinematch/backend/internal/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertPreference_Idempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "user-1", "u1@test.com")
	movie := testutil.CreateMovie(t, db, 603, "The Matrix")

	repo := NewPreferenceRepository(db)
	require.NoError(t, repo.UpsertPreference(ctx, "user-1", movie.ID, 3, false))
	require.NoError(t, repo.UpsertPreference(ctx, "user-1", movie.ID, 5, true))

	var prefs []models.UserPreference
	require.NoError(t, db.Where("user_id = ?", "user-1").Find(&prefs).Error)
	require.Len(t, prefs, 1)
	assert.Equal(t, 5, prefs[0].Rating)
	assert.True(t, prefs[0].Seen)
}

func TestListPreferences_OrderAndJoin(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "user-1", "u1@test.com")
	testutil.CreateUser(t, db, "user-2", "u2@test.com")
	m1 := testutil.CreateMovie(t, db, 10, "Ten")
	m2 := testutil.CreateMovie(t, db, 20, "Twenty")

	repo := NewPreferenceRepository(db)
	require.NoError(t, repo.UpsertPreference(ctx, "user-1", m2.ID, 4, true))
	require.NoError(t, repo.UpsertPreference(ctx, "user-1", m1.ID, 2, false))
	require.NoError(t, repo.UpsertPreference(ctx, "user-2", m1.ID, 5, true))

	rows, err := repo.ListPreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []PreferenceRow{
		{MovieID: m2.ID, ExternalID: 20, Rating: 4},
		{MovieID: m1.ID, ExternalID: 10, Rating: 2},
	}, rows)

	empty, err := repo.ListPreferences(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestFindMovieByExternalID(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.CreateMovie(t, db, 603, "The Matrix")

	repo := NewMovieRepository(db)
	movie, err := repo.FindMovieByExternalID(ctx, 603)
	require.NoError(t, err)
	require.NotNil(t, movie)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, models.StringArray{"Drama"}, movie.Genres)

	missing, err := repo.FindMovieByExternalID(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindMoviesByExternalIDs(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.CreateMovie(t, db, 1, "One")
	testutil.CreateMovie(t, db, 3, "Three")

	found, err := NewMovieRepository(db).FindMoviesByExternalIDs(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "One", found[1].Title)
	assert.Equal(t, "Three", found[3].Title)

	none, err := NewMovieRepository(db).FindMoviesByExternalIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateMovie_FindOrCreate(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewMovieRepository(db)

	year := 1999
	poster := "https://image.tmdb.org/t/p/w500/m.jpg"
	in := &tmdb.TransformedMovie{
		ExternalID: 603,
		Title:      "The Matrix",
		Year:       &year,
		Genres:     []string{"Action", "Science Fiction"},
		PosterURL:  &poster,
	}

	var wg sync.WaitGroup
	ids := make([]uint, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			movie, err := repo.CreateMovie(ctx, in)
			if assert.NoError(t, err) {
				ids[i] = movie.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	var count int64
	require.NoError(t, db.Model(&models.Movie{}).Where("tmdb_id = ?", 603).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, err := repo.FindMovieByExternalID(ctx, 603)
	require.NoError(t, err)
	assert.Equal(t, models.StringArray{"Action", "Science Fiction"}, stored.Genres)
	assert.Equal(t, 1999, *stored.Year)

	_, err = repo.CreateMovie(ctx, &tmdb.TransformedMovie{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSaveUserEmbedding(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "user-1", "u1@test.com")

	repo := NewUserRepository(db)
	require.NoError(t, repo.SaveUserEmbedding(ctx, "user-1", []float32{0.1, 0.2, 0.3}))

	user, err := repo.GetUser(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, user.CollaborativeEmbedding)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, user.CollaborativeEmbedding.Slice())

	assert.ErrorIs(t, repo.SaveUserEmbedding(ctx, "missing", []float32{1}), ErrUserNotFound)
}

func TestUserRepository_Lookups(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	user := &models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(ctx, user))
	assert.NotEmpty(t, user.ID)

	byEmail, err := repo.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, repo.SetOnboardingCompleted(ctx, user.ID, true))
	reloaded, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.OnboardingCompleted)

	reloaded.Name = "Ada L."
	require.NoError(t, repo.UpdateUser(ctx, reloaded))
	reloaded, err = repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", reloaded.Name)

	assert.ErrorIs(t, repo.CreateUser(ctx, nil), ErrInvalidInput)
}

func TestGenres(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewMovieRepository(db)

	require.NoError(t, repo.UpsertGenres(ctx, []models.Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}}))
	require.NoError(t, repo.UpsertGenres(ctx, []models.Genre{{ID: 35, Name: "Comedy!"}}))

	genres, err := repo.ListGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy!"}}, genres)

	g, err := repo.FindGenreByName(ctx, "Action")
	require.NoError(t, err)
	assert.Equal(t, 28, g.ID)

	missing, err := repo.FindGenreByName(ctx, "Western")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestImpressions(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewImpressionRepository(db)

	require.NoError(t, repo.RecordImpressions(ctx, nil))
	require.NoError(t, repo.RecordImpressions(ctx, []models.RecommendationImpression{
		{UserID: "u", MovieID: 1, ExternalID: 55, Source: "collaborative", Position: 1, Score: 0.9},
		{UserID: "u", MovieID: 2, ExternalID: 57, Source: "collaborative", Position: 2, Score: 0.7},
		{UserID: "u", MovieID: 2, ExternalID: 57, Source: "tfidf", Position: 1, Score: 0.4},
	}))

	counts, err := repo.CountBySource(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"collaborative": 2, "tfidf": 1}, counts)
}
