package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scorebook/pipeline/internal/client"
	"scorebook/pipeline/internal/config"
	"scorebook/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/scores/json/CurrentSeason", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`2023`))
	})
	mux.HandleFunc("/scores/json/ScoresBySeason/2022", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Season": 2022, "DateTime": "2022-11-01T19:00:00", "HomeTeam": "LAK", "AwayTeam": "SJS", "HomeScore": 2, "AwayScore": 1, "Status": "F"}]`))
	})
	mux.HandleFunc("/scores/json/ScoresBySeason/2023", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Season": 2023, "DateTime": "2024-01-10T19:00:00", "HomeTeam": "SJS", "AwayTeam": "ANA", "HomeScore": 3, "AwayScore": 4, "Status": "F"}]`))
	})
	mux.HandleFunc("/scores/json/SchedulesBySeason/2023", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Season": 2023, "GameDate": "2024-01-14T00:00:00", "HomeTeamName": "Anaheim Ducks", "AwayTeamName": "Los Angeles Kings"}]`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testRunner(t *testing.T, feedURL, archiveDir string) *Runner {
	t.Helper()

	cfg := &config.Config{
		FirstSeason: 2022,
		ArchiveDir:  archiveDir,
		Timezone:    "UTC",
	}

	feed := client.NewClient(feedURL, "test-key", 5*time.Second)
	return NewRunner(cfg, feed, nil, nil, nil)
}

func TestRunner_AssembleBatch(t *testing.T) {
	dir := t.TempDir()
	archiveCSV := "season,date,home,away,home_pts,away_pts,game_seq\n" +
		"2009,2009-11-02,L.A. Kings,San Jose,4,3,\n" +
		"2009,2009-11-05,San Jose,Anaheim,2,2,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2009.csv"), []byte(archiveCSV), 0o644))

	srv := feedServer(t)
	r := testRunner(t, srv.URL, dir)

	raw, err := r.assembleBatch(context.Background())
	require.NoError(t, err, "Should assemble the full batch")
	require.Len(t, raw, 5, "Archives, two score seasons, one schedule row")

	// Source order is fixed: archives, then feed seasons ascending, then fixtures
	sources := make([]models.Source, 0, len(raw))
	for _, record := range raw {
		sources = append(sources, record.RecordSource())
	}
	assert.Equal(t, []models.Source{
		models.SourceArchive,
		models.SourceArchive,
		models.SourceScoreFeed,
		models.SourceScoreFeed,
		models.SourceScheduleFeed,
	}, sources)

	first, ok := raw[0].(*models.ArchiveRow)
	require.True(t, ok)
	assert.Equal(t, "2009-11-02", first.Date, "In-file row order should be preserved")

	older, ok := raw[2].(*models.ScoreRow)
	require.True(t, ok)
	assert.Equal(t, 2022, older.Season, "Feed seasons should arrive oldest first")
}

func TestRunner_AssembleBatch_MissingArchiveDir(t *testing.T) {
	srv := feedServer(t)
	r := testRunner(t, srv.URL, filepath.Join(t.TempDir(), "nope"))

	raw, err := r.assembleBatch(context.Background())
	require.NoError(t, err, "Missing archive directory should be skipped, not fatal")
	assert.Len(t, raw, 3, "Feed rows should still be assembled")
}

func TestRunner_AssembleBatch_FeedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := testRunner(t, srv.URL, "")

	_, err := r.assembleBatch(context.Background())
	require.Error(t, err, "Feed failures should abort batch assembly")
}
