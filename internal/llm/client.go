// Package llm provides an HTTP client for a local Ollama server. It owns
// transport concerns only: request/response, timeout, retry with
// exponential backoff, and extraction of JSON from free-form model
// output. Callers interpret the structured payload.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Error is returned for all Ollama client failures.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ollama: %s: %v", e.Message, e.Err)
	}
	return "ollama: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Client talks to one Ollama server. Sized for 3-8B local models: long
// request timeout, a small retry budget with exponential backoff.
type Client struct {
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetryDelay sets the initial backoff delay (testing).
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithHTTPClient overrides the underlying HTTP client (testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the Ollama server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: 3,
		retryDelay: time.Second,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateRequest is the payload for one completion call.
type GenerateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	Temperature float64 `json:"temperature"`
	Format      string  `json:"format,omitempty"`
	Stream      bool    `json:"stream"`
}

// GenerateResponse is the non-streaming completion result.
type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate performs one blocking completion call. Server errors,
// timeouts, and transport failures are retried with exponential backoff;
// client errors and malformed response bodies are not.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Message: "encode request", Err: err}
	}

	var lastErr error
	retryReason := "unknown"

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			log.Debug().Str("model", req.Model).Int("attempt", attempt+1).
				Str("reason", retryReason).Dur("delay", delay).Msg("Retrying Ollama request")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &Error{Message: "request canceled", Err: ctx.Err()}
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
		if err != nil {
			return nil, &Error{Message: "build request", Err: err}
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			lastErr = err
			retryReason = "transport error"
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			retryReason = "read response"
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			retryReason = fmt.Sprintf("server error (HTTP %d)", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, &Error{Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))}
		}

		var result GenerateResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, &Error{Message: "invalid JSON response", Err: err}
		}
		return &result, nil
	}

	return nil, &Error{
		Message: fmt.Sprintf("request failed after %d retries due to %s", c.maxRetries, retryReason),
		Err:     lastErr,
	}
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// maxFenceScan bounds the fenced-block regex search on large outputs.
const maxFenceScan = 10000

// ParseJSONResponse extracts a JSON object from the model's response
// text. Tries, in order: a direct parse, a ```json fenced block, and the
// outermost brace-delimited slice.
func ParseJSONResponse(resp *GenerateResponse) (map[string]any, error) {
	if resp == nil || resp.Response == "" {
		return nil, &Error{Message: "empty response from model"}
	}
	text := resp.Response

	var parsed map[string]any
	directErr := json.Unmarshal([]byte(text), &parsed)
	if directErr == nil {
		return parsed, nil
	}

	scan := text
	if len(scan) > maxFenceScan {
		scan = scan[:maxFenceScan]
	}
	if m := fencedJSONRe.FindStringSubmatch(scan); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &parsed); err == nil {
			return parsed, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err == nil {
			return parsed, nil
		}
	}

	return nil, &Error{Message: "failed to parse JSON from response", Err: directErr}
}

// CheckHealth reports whether the Ollama server answers at all.
func (c *Client) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the model names available on the server.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, &Error{Message: "build request", Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: "connect to server", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Message: fmt.Sprintf("list models: HTTP %d", resp.StatusCode)}
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &Error{Message: "invalid server response", Err: err}
	}

	names := make([]string, 0, len(payload.Models))
	for _, m := range payload.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

// ModelExists reports whether the named model is available. Errors are
// logged and mapped to false so callers can surface their own guidance;
// the eventual Generate call will fail with a more specific error.
func (c *Client) ModelExists(ctx context.Context, name string) bool {
	models, err := c.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Str("model", name).Msg("Unable to check model availability")
		return false
	}
	for _, m := range models {
		if m == name {
			return true
		}
	}
	return false
}
