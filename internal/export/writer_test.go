package export

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scorebook/pipeline/internal/models"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGame(date string, season int, home, away string, homePts, awayPts int) models.Game {
	d, _ := time.Parse("2006-01-02", date)
	return models.Game{
		GameDate:   d,
		Season:     season,
		HomeTeam:   home,
		AwayTeam:   away,
		HomePoints: sql.NullInt32{Int32: int32(homePts), Valid: true},
		AwayPoints: sql.NullInt32{Int32: int32(awayPts), Valid: true},
		Status:     models.StatusFinal,
		Source:     models.SourceScoreFeed,
	}
}

func TestExporter_WriteDataset(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	require.NoError(t, err)

	fixture := models.Game{
		GameDate: time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		Season:   2023,
		HomeTeam: "Anaheim Ducks",
		AwayTeam: "Los Angeles Kings",
		Status:   models.StatusScheduled,
		Source:   models.SourceScheduleFeed,
	}

	games := []models.Game{
		testGame("2024-01-10", 2023, "Los Angeles Kings", "San Jose Sharks", 3, 2),
		fixture,
	}

	path, err := e.WriteDataset(games)
	require.NoError(t, err, "Should write the dataset artifact")
	assert.Equal(t, filepath.Join(dir, DatasetFile), path)

	rows, err := parquet.ReadFile[datasetRow](path)
	require.NoError(t, err, "Artifact should be readable parquet")
	require.Len(t, rows, 2)

	assert.Equal(t, "2024-01-10", rows[0].GameDate)
	assert.Equal(t, int32(2023), rows[0].Season)
	require.NotNil(t, rows[0].HomePoints, "Completed game should carry points")
	assert.Equal(t, int32(3), *rows[0].HomePoints)
	assert.Equal(t, "scorefeed", rows[0].Source)

	assert.Nil(t, rows[1].HomePoints, "Fixture should have no points")
	assert.Equal(t, "Scheduled", rows[1].Status)
}

func TestExporter_WriteRatings(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	require.NoError(t, err)

	ratings := []models.Rating{
		{Team: "Los Angeles Kings", Value: 1510, GamesRated: 2, RatingDate: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)},
	}

	path, err := e.WriteRatings(ratings)
	require.NoError(t, err, "Should write the ratings artifact")

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2, "Header plus one row")
	assert.Equal(t, "team,rating,games_rated,rating_date", lines[0])
	assert.Equal(t, "Los Angeles Kings,1510,2,2024-01-12", lines[1])
}

func TestExporter_WritePredictions(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	require.NoError(t, err)

	predictions := []models.Prediction{
		{
			GameDate: time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
			Season:   2023, Sequence: 0,
			HomeTeam: "Anaheim Ducks", AwayTeam: "Los Angeles Kings",
			HomeWinProb: 0.47, AwayWinProb: 0.53,
			HomeRating: 1495, AwayRating: 1510,
			AsOf: time.Date(2024, 1, 12, 9, 30, 0, 0, time.UTC),
		},
	}

	path, err := e.WritePredictions(predictions)
	require.NoError(t, err, "Should write the predictions artifact")

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"game_date,season,sequence,home_team,away_team,home_win_prob,away_win_prob,home_rating,away_rating,as_of",
		lines[0])
	assert.Contains(t, lines[1], "2024-01-14,2023,0,Anaheim Ducks,Los Angeles Kings,0.47,0.53")
	assert.Contains(t, lines[1], "2024-01-12T09:30:00Z")
}

func TestExporter_WriteFeatures(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	require.NoError(t, err)

	windows := []int{5}

	stats := func(values map[string]float64) map[string]float64 {
		full := map[string]float64{
			"win_rate_5":           0.5,
			"points_for_avg_5":     0,
			"points_against_avg_5": 0,
			"point_diff_avg_5":     0,
			"season_win_pct":       0,
			"season_games_played":  0,
		}
		for k, v := range values {
			full[k] = v
		}
		return full
	}

	rows := []models.FeatureRow{
		{
			Game: testGame("2024-01-10", 2023, "Los Angeles Kings", "San Jose Sharks", 3, 2),
			Home: stats(nil),
			Away: stats(nil),
		},
		{
			Game: testGame("2024-01-11", 2023, "San Jose Sharks", "Anaheim Ducks", 1, 4),
			Home: stats(map[string]float64{"season_win_pct": 0, "season_games_played": 1}),
			Away: stats(nil),
		},
	}

	path, err := e.WriteFeatures(rows, windows)
	require.NoError(t, err, "Should write the features artifact")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err, "Artifact should be readable csv")
	require.Len(t, records, 3, "Header plus two rows")

	header := records[0]
	// 6 game columns plus a home/away pair per statistic
	require.Len(t, header, 6+2*6)
	assert.Equal(t, "game_date", header[0])
	assert.Equal(t, "home_win_rate_5", header[6])
	assert.Equal(t, "away_win_rate_5", header[7])
	assert.Equal(t, "home_season_win_pct", header[14])

	first := records[1]
	assert.Equal(t, "2024-01-10", first[0])
	assert.Equal(t, "2023", first[1])
	assert.Equal(t, "0.5", first[6], "Neutral prior should be exported as-is")

	second := records[2]
	assert.Equal(t, "1", second[15+1], "Season games played should follow its header column")
}

func TestExporter_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	require.NoError(t, err)

	_, err = e.WriteRatings([]models.Rating{{Team: "A", Value: 1500, RatingDate: time.Now()}})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "Only the published artifact should remain")
	assert.Equal(t, RatingsFile, entries[0].Name())
}
