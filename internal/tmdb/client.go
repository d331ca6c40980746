package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/metrics"
	"github.com/cinematch/backend/internal/telemetry"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = 500 * time.Millisecond
	DefaultConcurrency  = 2
)

// Config holds catalog client settings. Zero values fall back to the defaults above.
type Config struct {
	BaseURL      string
	BearerToken  string
	Timeout      time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
	Concurrency  int
	HTTPClient   *http.Client
}

// Client talks to the TMDB v3 API. It is safe for concurrent use.
type Client struct {
	baseURL      string
	bearerToken  string
	client       *http.Client
	maxAttempts  int
	retryBackoff time.Duration
	concurrency  int
}

// NewClient creates a catalog client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = telemetry.NewHTTPClient("tmdb", cfg.Timeout)
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		bearerToken:  cfg.BearerToken,
		client:       httpClient,
		maxAttempts:  cfg.MaxAttempts,
		retryBackoff: cfg.RetryBackoff,
		concurrency:  cfg.Concurrency,
	}
}

// safeGet performs a GET and decodes the JSON body into out. Connection resets are
// retried with a fixed backoff up to maxAttempts in total; every other failure,
// including non-2xx statuses, is returned immediately.
func (c *Client) safeGet(ctx context.Context, operation, path string, params url.Values, out interface{}) error {
	m := metrics.Get()
	start := time.Now()
	defer func() {
		m.CatalogRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	ctx, span := telemetry.StartExternalCall(ctx, "tmdb", operation)
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		status, err := c.get(ctx, path, params, out)
		if err == nil {
			m.CatalogRequestsTotal.WithLabelValues(operation, "success").Inc()
			telemetry.RecordOutcome(span, status, nil)
			return nil
		}

		if !isConnectionReset(err) {
			m.CatalogRequestsTotal.WithLabelValues(operation, "error").Inc()
			telemetry.RecordOutcome(span, status, err)
			return err
		}

		lastErr = err
		logger.Log.Warn("TMDB connection reset, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
		)
		if attempt == c.maxAttempts {
			break
		}
		m.CatalogRetriesTotal.Inc()
		telemetry.RecordRetry(span, attempt+1, err)
		if err := sleepContext(ctx, c.retryBackoff); err != nil {
			return err
		}
	}

	m.CatalogRequestsTotal.WithLabelValues(operation, "exhausted").Inc()
	err := fmt.Errorf("%w after %d attempts (%w): %s: %w", ErrUpstream, c.maxAttempts, ErrTransientNetwork, path, lastErr)
	telemetry.RecordOutcome(span, 0, err)
	return err
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) (int, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return resp.StatusCode, nil
}

func isConnectionReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
