package recommendations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/metrics"
	"github.com/cinematch/backend/internal/telemetry"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrRecommendationService wraps every failure talking to the recommendation engine
var ErrRecommendationService = errors.New("recommendation service error")

// ServiceError carries the engine's HTTP status for non-2xx replies
type ServiceError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("recommendation engine %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrRecommendationService
}

// CollaborativeResponse is the reply of POST /recommend
type CollaborativeResponse struct {
	Recommendations      []int     `json:"recommendations"`
	RecommendationScores []float64 `json:"recommendation_scores"`
	UserEmbedding        []float32 `json:"user_embedding"`
}

// ContentResponse is the reply of POST /tfidf-recommendation
type ContentResponse struct {
	Recommendations      []int     `json:"recommendations"`
	RecommendationScores []float64 `json:"recommendation_scores"`
}

type collaborativeRequest struct {
	MovieIDs []int `json:"movie_ids"`
	Ratings  []int `json:"ratings"`
}

type contentRequest struct {
	Interactions [][2]int `json:"interactions"`
}

// EngineConfig configures the engine client
type EngineConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// EngineClient calls the external recommendation engine over HTTP. Calls are
// guarded by a circuit breaker so a dead engine fails fast.
type EngineClient struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// NewEngineClient creates a new engine client
func NewEngineClient(cfg EngineConfig) *EngineClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = telemetry.NewHTTPClient("rec-engine", cfg.Timeout)
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "rec-engine",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// client-side errors say nothing about the engine's health
			var se *ServiceError
			if errors.As(err, &se) {
				return se.StatusCode < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.Get().CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &EngineClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
		cb:      cb,
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Recommend asks the collaborative model for k titles given the user's rated
// external ids and their ratings, index-aligned.
func (c *EngineClient) Recommend(ctx context.Context, movieIDs, ratings []int, k int) (*CollaborativeResponse, error) {
	if len(movieIDs) != len(ratings) {
		return nil, fmt.Errorf("%w: %d movie ids but %d ratings", ErrRecommendationService, len(movieIDs), len(ratings))
	}

	endpoint := "/recommend?" + url.Values{"k": {strconv.Itoa(k)}}.Encode()
	body, err := c.call(ctx, "recommend", http.MethodPost, endpoint, collaborativeRequest{MovieIDs: movieIDs, Ratings: ratings})
	if err != nil {
		return nil, err
	}

	var out CollaborativeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrRecommendationService, err)
	}
	return &out, nil
}

// RecommendContent asks the TF-IDF model for k titles given (externalId, rating) pairs
func (c *EngineClient) RecommendContent(ctx context.Context, interactions [][2]int, k int) (*ContentResponse, error) {
	if interactions == nil {
		interactions = [][2]int{}
	}

	endpoint := "/tfidf-recommendation?" + url.Values{"k": {strconv.Itoa(k)}}.Encode()
	body, err := c.call(ctx, "tfidf", http.MethodPost, endpoint, contentRequest{Interactions: interactions})
	if err != nil {
		return nil, err
	}

	var out ContentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrRecommendationService, err)
	}
	return &out, nil
}

// Health reports whether the engine has its models loaded
func (c *EngineClient) Health(ctx context.Context) error {
	_, err := c.call(ctx, "health", http.MethodGet, "/health", nil)
	return err
}

// call runs one request through the circuit breaker
func (c *EngineClient) call(ctx context.Context, operation, method, endpoint string, payload interface{}) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.Get().EngineRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	ctx, span := telemetry.StartExternalCall(ctx, "rec-engine", operation)
	defer span.End()

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.makeRequest(ctx, method, endpoint, payload)
	})
	if err != nil {
		var se *ServiceError
		status := 0
		if errors.As(err, &se) {
			status = se.StatusCode
		}
		telemetry.RecordOutcome(span, status, err)

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrRecommendationService, err)
		}
		return nil, err
	}

	telemetry.RecordOutcome(span, http.StatusOK, nil)
	return body, nil
}

// makeRequest makes an HTTP request to the engine and returns the response body
func (c *EngineClient) makeRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrRecommendationService, err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrRecommendationService, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", ErrRecommendationService, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrRecommendationService, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Endpoint:   strings.SplitN(endpoint, "?", 2)[0],
			Body:       truncate(string(data), 200),
		}
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
