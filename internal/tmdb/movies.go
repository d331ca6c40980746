package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/cinematch/backend/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FetchByID returns the detail record of one movie, including its IMDb id.
// Both the detail and the external id lookups must succeed.
func (c *Client) FetchByID(ctx context.Context, externalID int) (*TransformedMovie, error) {
	var detail rawResult
	if err := c.safeGet(ctx, "movie", fmt.Sprintf("/movie/%d", externalID), nil, &detail); err != nil {
		return nil, err
	}

	var ids externalIDsResponse
	if err := c.safeGet(ctx, "external_ids", fmt.Sprintf("/movie/%d/external_ids", externalID), nil, &ids); err != nil {
		return nil, err
	}

	movie := normalize(detail)
	movie.ImdbID = emptyToNil(ids.ImdbID)
	return &movie, nil
}

// FetchByQuery runs a multi search (movies and TV) for query
func (c *Client) FetchByQuery(ctx context.Context, query string, page int) ([]TransformedMovie, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(normalizePage(page)))
	return c.fetchList(ctx, "search_multi", "/search/multi", params)
}

// FetchByGenre discovers movies tagged with the given TMDB genre id
func (c *Client) FetchByGenre(ctx context.Context, genreID int, page int) ([]TransformedMovie, error) {
	params := url.Values{}
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("page", strconv.Itoa(normalizePage(page)))
	return c.fetchList(ctx, "discover_genre", "/discover/movie", params)
}

// FetchPopular returns a page of the default discover ordering (popularity)
func (c *Client) FetchPopular(ctx context.Context, page int) ([]TransformedMovie, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(normalizePage(page)))
	return c.fetchList(ctx, "discover_popular", "/discover/movie", params)
}

// FetchSimilar returns movies TMDB considers similar to externalID
func (c *Client) FetchSimilar(ctx context.Context, externalID int) ([]TransformedMovie, error) {
	return c.fetchList(ctx, "similar", fmt.Sprintf("/movie/%d/similar", externalID), nil)
}

// FetchGenres returns the TMDB movie genre list
func (c *Client) FetchGenres(ctx context.Context) ([]Genre, error) {
	var resp genreListResponse
	if err := c.safeGet(ctx, "genre_list", "/genre/movie/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Genres == nil {
		return []Genre{}, nil
	}
	return resp.Genres, nil
}

func (c *Client) fetchList(ctx context.Context, operation, path string, params url.Values) ([]TransformedMovie, error) {
	var page resultsPage
	if err := c.safeGet(ctx, operation, path, params, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		logger.Log.Warn("TMDB response missing results", zap.String("path", path))
		return []TransformedMovie{}, nil
	}
	return c.enrich(ctx, page.Results), nil
}

// enrich normalizes every result and attaches its IMDb id, with at most
// c.concurrency lookups in flight. A failed lookup leaves ImdbID nil.
func (c *Client) enrich(ctx context.Context, results []rawResult) []TransformedMovie {
	out := make([]TransformedMovie, len(results))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, r := range results {
		g.Go(func() error {
			movie := normalize(r)

			var ids externalIDsResponse
			err := c.safeGet(ctx, "external_ids", fmt.Sprintf("/movie/%d/external_ids", r.ID), nil, &ids)
			if err != nil {
				logger.Log.Warn("Failed to fetch IMDb id",
					logger.WithExternalID(r.ID),
					zap.Error(err),
				)
			} else {
				movie.ImdbID = emptyToNil(ids.ImdbID)
			}

			out[i] = movie
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
