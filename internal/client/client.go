// Package client is the HTTP client the command line tool uses to talk to the
// backend API.
package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "Cinematch-CLI/0.1.0"

// APIError is a non-2xx API response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthorized checks if err is a 401 response
func IsUnauthorized(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.StatusCode == 401
	}
	return false
}

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func parseError(resp *resty.Response) error {
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil && (body.Message != "" || body.Error != "") {
		msg := body.Message
		if msg == "" {
			msg = body.Error
		}
		return &APIError{StatusCode: resp.StatusCode(), Code: body.Code, Message: msg}
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: string(resp.Body())}
}

// Client wraps a resty client bound to one API base URL
type Client struct {
	http *resty.Client
}

// New creates a client. An empty token sends unauthenticated requests.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	if token != "" {
		http.SetAuthToken(token)
	}
	return &Client{http: http}
}

// SetToken replaces the bearer token for subsequent requests
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

func (c *Client) do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	if resp.IsError() {
		return parseError(resp)
	}
	return nil
}

// User is the public account shape
type User struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	OnboardingCompleted bool      `json:"onboardingCompleted"`
	CreatedAt           time.Time `json:"createdAt"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges credentials for a session token
func (c *Client) Login(email, password string) (*AuthResponse, error) {
	var out AuthResponse
	req := c.http.R().
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out)
	if err := c.do(req, resty.MethodPost, "/api/auth/login"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its first session
func (c *Client) Register(name, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	req := c.http.R().
		SetBody(map[string]string{"name": name, "email": email, "password": password}).
		SetResult(&out)
	if err := c.do(req, resty.MethodPost, "/api/auth/register"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the authenticated user
func (c *Client) Profile() (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(c.http.R().SetResult(&out), resty.MethodGet, "/api/auth/profile"); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Rating is one entry of a preference batch
type Rating struct {
	TmdbID int  `json:"tmdbId"`
	Rating int  `json:"rating"`
	Seen   bool `json:"seen"`
}

// SavedRating is an accepted preference
type SavedRating struct {
	TmdbID  int  `json:"tmdbId"`
	MovieID uint `json:"movieId"`
	Rating  int  `json:"rating"`
}

// RejectedRating is a preference the server could not store
type RejectedRating struct {
	TmdbID *int   `json:"tmdbId"`
	Reason string `json:"reason"`
}

// PreferencesResult summarizes a preference batch
type PreferencesResult struct {
	Message    string           `json:"message"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Saved      []SavedRating    `json:"successfulPreferences"`
	Rejected   []RejectedRating `json:"failedPreferences"`
}

// SavePreferences submits ratings. A batch where nothing was saved comes back
// as an APIError with the per-item reasons still decoded into the result.
func (c *Client) SavePreferences(ratings []Rating) (*PreferencesResult, error) {
	var out PreferencesResult
	resp, err := c.http.R().
		SetBody(ratings).
		SetResult(&out).
		SetError(&out).
		Post("/api/user/preferences")
	if err != nil {
		return nil, fmt.Errorf("POST /api/user/preferences failed: %w", err)
	}
	if resp.IsError() {
		return &out, parseError(resp)
	}
	return &out, nil
}

// CompleteOnboarding marks the authenticated user as onboarded
func (c *Client) CompleteOnboarding() error {
	return c.do(c.http.R(), resty.MethodPost, "/api/user/onboarding-completed")
}

// Movie is a catalog or recommendation entry. Score and Rank are only set on
// recommendations.
type Movie struct {
	TmdbID      int      `json:"tmdbId"`
	Title       string   `json:"title"`
	Year        *int     `json:"year"`
	Genres      []string `json:"genres"`
	Overview    string   `json:"overview"`
	VoteAverage float64  `json:"voteAverage"`
	Score       float64  `json:"score"`
	Rank        int      `json:"rank"`
}

// Recommendations is the recommendation endpoint payload
type Recommendations struct {
	Movies     []Movie `json:"recommendations"`
	TotalCount int     `json:"totalCount"`
	IsNewUser  bool    `json:"isNewUser"`
}

// Recommend fetches collaborative recommendations, or TF-IDF ones when content is set
func (c *Client) Recommend(limit int, content bool) (*Recommendations, error) {
	path := "/api/recommendations"
	if content {
		path += "/content"
	}
	var out Recommendations
	req := c.http.R().SetResult(&out)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if err := c.do(req, resty.MethodGet, path); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a free-text catalog search
func (c *Client) Search(query string, page int) ([]Movie, error) {
	var out []Movie
	req := c.http.R().
		SetQueryParam("query", query).
		SetQueryParam("page", strconv.Itoa(page)).
		SetResult(&out)
	if err := c.do(req, resty.MethodGet, "/api/search"); err != nil {
		return nil, err
	}
	return out, nil
}

// Popular lists currently popular titles
func (c *Client) Popular(page int) ([]Movie, error) {
	var out []Movie
	req := c.http.R().SetQueryParam("page", strconv.Itoa(page)).SetResult(&out)
	if err := c.do(req, resty.MethodGet, "/api/popular"); err != nil {
		return nil, err
	}
	return out, nil
}
