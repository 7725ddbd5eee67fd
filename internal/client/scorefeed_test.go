package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	rateLimiter := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      "test-key",
		rateLimiter: rateLimiter,
		maxRetries:  2,
		retryDelay:  5 * time.Millisecond,
		httpClient:  &http.Client{Timeout: 2 * time.Second},
	}
}

func TestClient_FetchSeasonScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scores/json/ScoresBySeason/2023", r.URL.Path, "Should hit the season scores endpoint")
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"), "Should send the API key header")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"Season": 2023, "DateTime": "2024-01-10T19:00:00", "HomeTeam": "LAK", "AwayTeam": "SJS", "HomeScore": 3, "AwayScore": 2, "Status": "F"},
			{"Season": 2023, "DateTime": "2024-01-14T19:30:00", "HomeTeam": "ANA", "AwayTeam": "LAK", "Status": "S"}
		]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	scores, err := c.FetchSeasonScores(context.Background(), 2023)
	require.NoError(t, err, "Should fetch season scores")
	require.Len(t, scores, 2)

	assert.Equal(t, "LAK", scores[0].HomeTeam)
	require.NotNil(t, scores[0].HomeScore, "Completed game should carry points")
	assert.Equal(t, 3, *scores[0].HomeScore)
	assert.Equal(t, "F", scores[0].Status)

	assert.Nil(t, scores[1].HomeScore, "Fixture should have no points")
	assert.Equal(t, "S", scores[1].Status)
}

func TestClient_FetchSeasonSchedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scores/json/SchedulesBySeason/2023", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"Season": 2023, "GameDate": "2024-01-14T00:00:00", "HomeTeamName": "Anaheim Ducks", "AwayTeamName": "Los Angeles Kings"}
		]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	schedule, err := c.FetchSeasonSchedule(context.Background(), 2023)
	require.NoError(t, err, "Should fetch season schedule")
	require.Len(t, schedule, 1)
	assert.Equal(t, "Anaheim Ducks", schedule[0].HomeTeamName)
	assert.Nil(t, schedule[0].GameNumber)
}

func TestClient_Get_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`7`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	season, err := c.FetchCurrentSeason(context.Background())
	require.NoError(t, err, "Should succeed after retries")
	assert.Equal(t, 7, season)
	assert.Equal(t, int32(3), calls.Load(), "Should have retried twice before succeeding")
}

func TestClient_Get_NoRetryOnAuthError(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.FetchCurrentSeason(context.Background())
	require.Error(t, err, "Auth failure should not be retried")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "Should surface a status error")
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.False(t, statusErr.Retryable())
	assert.Equal(t, int32(1), calls.Load(), "Should have made exactly one request")
}

func TestClient_Get_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.FetchSeasonScores(context.Background(), 2023)
	require.Error(t, err, "Should fail once attempts run out")

	var exhausted *RetriesExhaustedError
	require.True(t, errors.As(err, &exhausted), "Should surface a retries exhausted error")
	assert.Equal(t, 3, exhausted.Attempts)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "Exhausted error should wrap the last status error")
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.True(t, statusErr.Retryable())

	assert.Equal(t, int32(3), calls.Load(), "Should attempt maxRetries+1 times")
}

func TestClient_Get_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.retryDelay = 5 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchCurrentSeason(ctx)
	require.Error(t, err, "Should abort on context cancellation")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
