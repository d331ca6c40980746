package tmdb

import (
	"strconv"
	"strings"
)

// PosterBaseURL is the image CDN prefix for w500 posters
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

// TransformedMovie is the normalized shape every catalog call returns
type TransformedMovie struct {
	ExternalID  int      `json:"tmdbId"`
	Title       string   `json:"title"`
	Year        *int     `json:"year"`
	Genres      []string `json:"genres"`
	GenreIDs    []int    `json:"genre_ids"`
	PosterURL   *string  `json:"posterUrl"`
	Overview    string   `json:"overview"`
	VoteAverage float64  `json:"voteAverage"`
	ReleaseDate *string  `json:"releaseDate"`
	ImdbID      *string  `json:"imdbId"`
}

// Genre is an entry of /genre/movie/list
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// rawResult covers the detail, search/multi, discover and similar shapes.
// search/multi may return TV entries, which carry name instead of title.
type rawResult struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Name        string  `json:"name"`
	GenreIDs    []int   `json:"genre_ids"`
	Genres      []Genre `json:"genres"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	MediaType   string  `json:"media_type"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
}

type resultsPage struct {
	Page         int         `json:"page"`
	Results      []rawResult `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

type externalIDsResponse struct {
	ImdbID *string `json:"imdb_id"`
}

type genreListResponse struct {
	Genres []Genre `json:"genres"`
}

// normalize maps one upstream record onto TransformedMovie. The IMDb id is
// filled in separately.
func normalize(r rawResult) TransformedMovie {
	m := TransformedMovie{
		ExternalID:  r.ID,
		Title:       r.Title,
		Genres:      make([]string, 0, len(r.Genres)),
		GenreIDs:    r.GenreIDs,
		Overview:    r.Overview,
		VoteAverage: r.VoteAverage,
	}
	if m.Title == "" {
		m.Title = r.Name
	}
	if m.GenreIDs == nil {
		m.GenreIDs = []int{}
	}
	for _, g := range r.Genres {
		m.Genres = append(m.Genres, g.Name)
	}
	if r.ReleaseDate != "" {
		date := r.ReleaseDate
		m.ReleaseDate = &date
		m.Year = parseYear(date)
	}
	if r.PosterPath != "" {
		poster := PosterBaseURL + r.PosterPath
		m.PosterURL = &poster
	}
	return m
}

func parseYear(date string) *int {
	prefix, _, _ := strings.Cut(date, "-")
	year, err := strconv.Atoi(prefix)
	if err != nil {
		return nil
	}
	return &year
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
