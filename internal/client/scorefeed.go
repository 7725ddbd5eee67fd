package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"scorebook/pipeline/internal/metrics"
	"scorebook/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// StatusError is a non-OK response from the feed provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is transient. Rate limits and
// upstream gateway failures are worth retrying; auth and client errors
// are not.
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// RetriesExhaustedError wraps the last failure after all attempts.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

// Client is the score feed API client
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new score feed API client with optimizations
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	// Create rate limiter (max 20 concurrent requests, burst of 20)
	rateLimiter := make(chan struct{}, 20)
	for i := 0; i < 20; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		rateLimiter: rateLimiter,
		maxRetries:  3,
		retryDelay:  1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request to the feed with retry logic and rate limiting
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	// Rate limiting: acquire semaphore for the whole call, retries included
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.rateLimiter:
		defer func() { c.rateLimiter <- struct{}{} }()
	}

	var lastErr error
	var retryAfter time.Duration

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s, overridden by Retry-After
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			if retryAfter > 0 {
				backoff = retryAfter
			}
			// Small jitter (0-250ms) to reduce thundering herd
			backoff += time.Duration(rand.Intn(250)) * time.Millisecond

			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying feed request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		retryAfter = 0

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		// Add headers
		req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "Scorebook-Pipeline/1.0")

		// Add query parameters
		if len(params) > 0 {
			q := req.URL.Query()
			for key, value := range params {
				q.Add(key, value)
			}
			req.URL.RawQuery = q.Encode()
		}

		log.Debug().
			Str("url", url).
			Str("method", req.Method).
			Int("attempt", attempt+1).
			Msg("Making feed request")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordAPICall(path, "network_error", time.Since(start).Seconds())
			lastErr = fmt.Errorf("feed request failed: %w", err)
			// Retry on network errors
			if attempt < c.maxRetries {
				continue
			}
			return nil, &RetriesExhaustedError{Attempts: attempt + 1, Last: lastErr}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		metrics.RecordAPICall(path, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, &RetriesExhaustedError{Attempts: attempt + 1, Last: lastErr}
		}

		if resp.StatusCode == http.StatusOK {
			log.Debug().
				Str("url", url).
				Int("status", resp.StatusCode).
				Int("size", len(body)).
				Msg("Feed request successful")
			return body, nil
		}

		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if !statusErr.Retryable() {
			return nil, statusErr
		}

		lastErr = statusErr
		if attempt < c.maxRetries {
			// Honor Retry-After (seconds) when the provider sends one
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil {
					retryAfter = time.Duration(secs) * time.Second
				}
			}
			log.Warn().
				Str("url", url).
				Int("status", resp.StatusCode).
				Int("attempt", attempt+1).
				Msg("Received retryable error, will retry")
			continue
		}
		return nil, &RetriesExhaustedError{Attempts: attempt + 1, Last: lastErr}
	}

	return nil, lastErr
}

// FetchCurrentSeason fetches the current season year
func (c *Client) FetchCurrentSeason(ctx context.Context) (int, error) {
	body, err := c.get(ctx, "scores/json/CurrentSeason", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch current season: %w", err)
	}

	var season int
	if err := json.Unmarshal(body, &season); err != nil {
		return 0, fmt.Errorf("failed to unmarshal season: %w", err)
	}

	return season, nil
}

// FetchSeasonScores fetches all score feed rows for a season
func (c *Client) FetchSeasonScores(ctx context.Context, season int) ([]models.ScoreRow, error) {
	path := fmt.Sprintf("scores/json/ScoresBySeason/%d", season)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch season scores: %w", err)
	}

	var scores []models.ScoreRow
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal season scores: %w", err)
	}

	return scores, nil
}

// FetchSeasonSchedule fetches the fixture list for a season
func (c *Client) FetchSeasonSchedule(ctx context.Context, season int) ([]models.ScheduleRow, error) {
	path := fmt.Sprintf("scores/json/SchedulesBySeason/%d", season)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch season schedule: %w", err)
	}

	var schedule []models.ScheduleRow
	if err := json.Unmarshal(body, &schedule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal season schedule: %w", err)
	}

	return schedule, nil
}
