package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/cinematch/backend/internal/auth"
	"github.com/cinematch/backend/internal/middleware"
	"github.com/cinematch/backend/internal/models"
	"github.com/cinematch/backend/internal/recommendations"
	"github.com/cinematch/backend/internal/tmdb"
	"github.com/gin-gonic/gin"
)

// fakeCatalog answers from maps and records the arguments it saw
type fakeCatalog struct {
	mu       sync.Mutex
	movies   map[int]*tmdb.TransformedMovie
	list     []tmdb.TransformedMovie
	err      error
	lastPage int
	lastID   int
}

func (f *fakeCatalog) record(id, page int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastID = id
	f.lastPage = page
}

func (f *fakeCatalog) FetchByID(_ context.Context, id int) (*tmdb.TransformedMovie, error) {
	f.record(id, 0)
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.movies[id]; ok {
		return m, nil
	}
	return nil, &tmdb.StatusError{StatusCode: http.StatusNotFound, Path: fmt.Sprintf("/movie/%d", id)}
}

func (f *fakeCatalog) FetchByQuery(_ context.Context, _ string, page int) ([]tmdb.TransformedMovie, error) {
	f.record(0, page)
	return f.list, f.err
}

func (f *fakeCatalog) FetchByGenre(_ context.Context, genreID int, page int) ([]tmdb.TransformedMovie, error) {
	f.record(genreID, page)
	return f.list, f.err
}

func (f *fakeCatalog) FetchPopular(_ context.Context, page int) ([]tmdb.TransformedMovie, error) {
	f.record(0, page)
	return f.list, f.err
}

func (f *fakeCatalog) FetchSimilar(_ context.Context, id int) ([]tmdb.TransformedMovie, error) {
	f.record(id, 0)
	return f.list, f.err
}

type fakeGenres struct {
	genres []models.Genre
	calls  int
}

func (f *fakeGenres) ListGenres(context.Context) ([]models.Genre, error) {
	f.calls++
	return f.genres, nil
}

func (f *fakeGenres) FindGenreByName(_ context.Context, name string) (*models.Genre, error) {
	for i := range f.genres {
		if f.genres[i].Name == name {
			return &f.genres[i], nil
		}
	}
	return nil, nil
}

type fakeRecommender struct {
	result    *recommendations.Result
	err       error
	lastLimit int
	lastUser  string
}

func (f *fakeRecommender) GetRecommendations(_ context.Context, userID string, limit int) (*recommendations.Result, error) {
	f.lastUser, f.lastLimit = userID, limit
	return f.result, f.err
}

func (f *fakeRecommender) GetContentBasedRecommendations(_ context.Context, userID string, limit int) (*recommendations.Result, error) {
	f.lastUser, f.lastLimit = userID, limit
	return f.result, f.err
}

// newRouter wires h the same way the server does
func newRouter(h *Handlers, authService auth.ServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	requireAuth := middleware.AuthMiddleware(authService)

	r.GET("/health", h.Health)

	api := r.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/profile", requireAuth, h.GetProfile)
	authGroup.PUT("/profile", requireAuth, h.UpdateProfile)
	authGroup.PUT("/change-password", requireAuth, h.ChangePassword)

	api.POST("/user/preferences", requireAuth, h.SavePreferences)
	api.POST("/user/onboarding-completed", requireAuth, h.MarkOnboardingCompleted)

	api.GET("/genres", h.GetGenres)
	api.GET("/search", h.Search)
	api.GET("/genre", h.GenreMovies)
	api.GET("/popular", h.PopularMovies)
	api.GET("/similar", h.SimilarMovies)
	api.GET("/movie/:tmdbId", h.MovieDetails)

	api.POST("/recommendations", requireAuth, h.GetRecommendations)
	api.GET("/recommendations", requireAuth, h.GetRecommendations)
	api.GET("/recommendations/content", requireAuth, h.GetContentRecommendations)
	return r
}

func doRequest(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}
