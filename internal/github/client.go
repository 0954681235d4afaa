// Package github provides a minimal GitHub REST v3 client for fetching
// repository issues and their comments, with pagination, rate-limit
// backoff, and optional on-disk response caching.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
)

// APIError is returned when the GitHub API rejects a request or a request
// fails after exhausting retries.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("github api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github api error: %s", e.Message)
}

// Client is a GitHub REST API client.
type Client struct {
	baseURL    string
	token      string
	perPage    int
	maxRetries int
	retryDelay time.Duration
	cacheDir   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets a bearer token for authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithPerPage sets the page size, clamped to [1,100].
func WithPerPage(n int) Option {
	return func(c *Client) {
		c.perPage = min(max(n, 1), 100)
	}
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryDelay sets the base backoff delay (testing).
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithCacheDir enables raw response caching under dir.
func WithCacheDir(dir string) Option {
	return func(c *Client) { c.cacheDir = dir }
}

// WithBaseURL overrides the API base URL (testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client (testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a GitHub client.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    defaultBaseURL,
		perPage:    100,
		maxRetries: 3,
		retryDelay: time.Second,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cacheDir != "" {
		if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("create github cache dir: %w", err)
		}
	}
	return c, nil
}

// Issue is a raw GitHub issue as returned by the REST API. Issues that are
// actually pull requests carry a non-nil PullRequest field.
type Issue struct {
	ID          int64           `json:"id"`
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	State       string          `json:"state"`
	HTMLURL     string          `json:"html_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	User        *User           `json:"user"`
	Labels      []Label         `json:"labels"`
	Reactions   Reactions       `json:"reactions"`
	PullRequest json.RawMessage `json:"pull_request,omitempty"`
}

// Comment is a raw GitHub issue comment.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	User      *User     `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	Reactions Reactions `json:"reactions"`
}

// User is a GitHub account reference.
type User struct {
	Login string `json:"login"`
}

// Label is a GitHub issue label.
type Label struct {
	Name string `json:"name"`
}

// Reactions holds the per-emoji reaction counts GitHub reports.
type Reactions struct {
	PlusOne  int `json:"+1"`
	MinusOne int `json:"-1"`
	Laugh    int `json:"laugh"`
	Hooray   int `json:"hooray"`
	Confused int `json:"confused"`
	Heart    int `json:"heart"`
	Rocket   int `json:"rocket"`
	Eyes     int `json:"eyes"`
}

// Counts returns the non-zero reaction counts keyed by emoji name.
func (r Reactions) Counts() map[string]int {
	m := make(map[string]int)
	for name, n := range map[string]int{
		"+1": r.PlusOne, "-1": r.MinusOne, "laugh": r.Laugh,
		"hooray": r.Hooray, "confused": r.Confused, "heart": r.Heart,
		"rocket": r.Rocket, "eyes": r.Eyes,
	} {
		if n > 0 {
			m[name] = n
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// FetchIssues fetches issues from a repository in the given state, oldest
// first, excluding pull requests. A limit of 0 means no limit.
func (c *Client) FetchIssues(ctx context.Context, owner, repo, state string, limit int) ([]Issue, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)
	params := url.Values{
		"state":     {state},
		"sort":      {"created"},
		"direction": {"asc"},
	}

	var all []Issue
	err := c.paginate(ctx, endpoint, params, func(page []byte) (bool, error) {
		var issues []Issue
		if err := json.Unmarshal(page, &issues); err != nil {
			return false, fmt.Errorf("decode issues page: %w", err)
		}
		for _, issue := range issues {
			if issue.PullRequest != nil {
				continue
			}
			all = append(all, issue)
			if limit > 0 && len(all) >= limit {
				return false, nil
			}
		}
		return len(issues) == c.perPage, nil
	})
	if err != nil {
		return nil, err
	}

	c.cacheResponse(fmt.Sprintf("%s_%s_issues_%s", owner, repo, state), all)
	return all, nil
}

// FetchIssueComments fetches all comments on one issue, oldest first.
func (c *Client) FetchIssueComments(ctx context.Context, owner, repo string, issueNumber int) ([]Comment, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, issueNumber)
	params := url.Values{
		"sort":      {"created"},
		"direction": {"asc"},
	}

	var all []Comment
	err := c.paginate(ctx, endpoint, params, func(page []byte) (bool, error) {
		var comments []Comment
		if err := json.Unmarshal(page, &comments); err != nil {
			return false, fmt.Errorf("decode comments page: %w", err)
		}
		all = append(all, comments...)
		return len(comments) == c.perPage, nil
	})
	if err != nil {
		return nil, err
	}

	c.cacheResponse(fmt.Sprintf("%s_%s_issue_%d_comments", owner, repo, issueNumber), all)
	return all, nil
}

// CheckRepositoryAccess reports whether the repository is visible to this
// client. A 404 maps to false; other API errors are returned.
func (c *Client) CheckRepositoryAccess(ctx context.Context, owner, repo string) (bool, error) {
	_, err := c.request(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// paginate walks pages of an endpoint until handlePage reports no more
// pages or an error.
func (c *Client) paginate(ctx context.Context, endpoint string, params url.Values, handlePage func([]byte) (bool, error)) error {
	page := 1
	for {
		pageParams := url.Values{}
		for k, vs := range params {
			pageParams[k] = vs
		}
		pageParams.Set("per_page", strconv.Itoa(c.perPage))
		pageParams.Set("page", strconv.Itoa(page))

		body, err := c.request(ctx, endpoint, pageParams)
		if err != nil {
			return err
		}

		more, err := handlePage(body)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		page++
	}
}

// request performs one GET with retry and backoff on rate limits, server
// errors, and transport failures. 410 Gone returns an empty body.
func (c *Client) request(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryDelay * time.Duration(1<<attempt)
			log.Debug().Str("endpoint", endpoint).Int("attempt", attempt).
				Dur("wait", wait).Msg("Retrying GitHub request")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retryable, err := c.doRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, &APIError{Message: fmt.Sprintf("request failed after %d retries: %v", c.maxRetries, lastErr)}
}

// doRequest performs a single GET and classifies the outcome.
func (c *Client) doRequest(ctx context.Context, reqURL string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(data)), "rate limit"):
		log.Warn().Str("url", reqURL).Msg("GitHub rate limit hit")
		return nil, true, &APIError{StatusCode: resp.StatusCode, Message: "rate limit exceeded"}
	case resp.StatusCode >= 500:
		return nil, true, &APIError{StatusCode: resp.StatusCode, Message: "server error"}
	case resp.StatusCode == http.StatusGone:
		return []byte("[]"), false, nil
	case resp.StatusCode >= 400:
		return nil, false, &APIError{StatusCode: resp.StatusCode, Message: apiMessage(data)}
	}

	return data, false, nil
}

// apiMessage extracts the "message" field from an API error body.
func apiMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(data)
}

// cacheResponse writes a fetched payload to the cache directory. Cache
// write failures are logged, never fatal.
func (c *Client) cacheResponse(key string, v any) {
	if c.cacheDir == "" {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to encode github cache entry")
		return
	}
	path := filepath.Join(c.cacheDir, key+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write github cache entry")
	}
}
