package ratings

import (
	"database/sql"
	"testing"
	"time"

	"scorebook/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratedGame(d int, home, away string, hp, ap int) models.Game {
	return models.Game{
		GameDate:   time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC),
		Season:     2023,
		HomeTeam:   home,
		AwayTeam:   away,
		HomePoints: sql.NullInt32{Int32: int32(hp), Valid: true},
		AwayPoints: sql.NullInt32{Int32: int32(ap), Valid: true},
		Status:     models.StatusFinal,
		Source:     models.SourceScoreFeed,
	}
}

func fixture(d int, home, away string) models.Game {
	return models.Game{
		GameDate: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC),
		Season:   2023,
		HomeTeam: home,
		AwayTeam: away,
		Status:   models.StatusScheduled,
		Source:   models.SourceScheduleFeed,
	}
}

func TestExpected(t *testing.T) {
	assert.Equal(t, 0.5, Expected(1500, 1500), "Equal ratings must split the probability")

	// Monotonically increasing in the rating gap
	assert.Greater(t, Expected(1600, 1400), Expected(1500, 1500))
	assert.Greater(t, Expected(1500, 1500), Expected(1400, 1600))

	// Always a probability
	for _, gap := range []float64{-800, -200, 0, 200, 800} {
		p := Expected(1500+gap, 1500)
		assert.Greater(t, p, 0.0)
		assert.Less(t, p, 1.0)
	}
}

func TestUpdatePair_ZeroSum(t *testing.T) {
	newHome, newAway := UpdatePair(1500, 1500, 1, 20)

	assert.Equal(t, 1510.0, newHome, "Winner of an even matchup gains K/2")
	assert.Equal(t, 1490.0, newAway, "Loser of an even matchup drops K/2")
	assert.InDelta(t, newHome-1500, -(newAway - 1500), 1e-9, "Update must be zero-sum")

	// An upset moves ratings further than a favorite win
	upsetHome, _ := UpdatePair(1400, 1600, 1, 20)
	favoriteHome, _ := UpdatePair(1600, 1400, 1, 20)
	assert.Greater(t, upsetHome-1400, favoriteHome-1600, "Upsets must move ratings more")
}

func TestEngine_BaselineForUnseenTeams(t *testing.T) {
	e := NewEngine(DefaultK, DefaultBaseline)

	assert.Equal(t, 1500.0, e.Rating("Nobody Yet"), "Unseen team sits at the baseline")
	assert.Equal(t, 0.5, e.ExpectedHomeWinProb("Nobody Yet", "Also Nobody"))
}

func TestEngine_ThreeCycleSumsToThreeBaselines(t *testing.T) {
	e := NewEngine(20, 1500)

	err := e.Replay([]models.Game{
		ratedGame(1, "A", "B", 3, 1),
		ratedGame(2, "B", "C", 2, 0),
		ratedGame(3, "C", "A", 5, 4),
	})
	require.NoError(t, err)

	sum := e.Rating("A") + e.Rating("B") + e.Rating("C")
	assert.InDelta(t, 4500.0, sum, 1e-9, "Zero-sum updates must preserve the rating pool")
	assert.Equal(t, 3, e.Applied())
}

func TestEngine_ReplayDeterminism(t *testing.T) {
	history := []models.Game{
		ratedGame(1, "A", "B", 3, 1),
		ratedGame(2, "B", "C", 2, 4),
		ratedGame(3, "C", "A", 1, 1),
		ratedGame(4, "A", "C", 6, 2),
	}

	first := NewEngine(20, 1500)
	require.NoError(t, first.Replay(history))

	// Same games handed over in reverse order
	reversed := make([]models.Game, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		reversed = append(reversed, history[i])
	}
	second := NewEngine(20, 1500)
	require.NoError(t, second.Replay(reversed))

	asOf := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, first.Snapshot(asOf), second.Snapshot(asOf),
		"Replay must sort chronologically and land on identical ratings")
}

func TestEngine_OutOfOrderApplyFails(t *testing.T) {
	e := NewEngine(20, 1500)

	later := ratedGame(10, "A", "B", 2, 1)
	earlier := ratedGame(5, "A", "B", 0, 3)

	require.NoError(t, e.Apply(&later))

	err := e.Apply(&earlier)
	var ooo *OutOfOrderError
	require.ErrorAs(t, err, &ooo, "Regressing the date must fail loudly")
	assert.Equal(t, later.GameDate, ooo.Applied)
	assert.Equal(t, earlier.GameDate, ooo.Next)

	// Same-date games are fine (doubleheaders)
	sameDay := ratedGame(10, "B", "A", 4, 2)
	sameDay.Sequence = 2
	assert.NoError(t, e.Apply(&sameDay))
}

func TestEngine_ApplyRejectsUnfinishedGames(t *testing.T) {
	e := NewEngine(20, 1500)

	unplayed := fixture(3, "A", "B")
	assert.Error(t, e.Apply(&unplayed), "Scheduled games must never feed ratings")
}

func TestEngine_ReplaySkipsFixtures(t *testing.T) {
	e := NewEngine(20, 1500)

	err := e.Replay([]models.Game{
		ratedGame(1, "A", "B", 3, 1),
		fixture(2, "B", "A"),
		ratedGame(3, "B", "A", 2, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, e.Applied(), "Only completed games count")
}

func TestEngine_PredictFixturesIsReadOnly(t *testing.T) {
	e := NewEngine(20, 1500)
	require.NoError(t, e.Replay([]models.Game{
		ratedGame(1, "A", "B", 3, 1),
		ratedGame(2, "A", "B", 4, 0),
	}))

	asOf := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	before := e.Snapshot(asOf)

	fixtures := []models.Game{
		fixture(10, "A", "B"),
		fixture(11, "B", "A"),
		ratedGame(12, "A", "B", 1, 0), // completed games are not fixtures
	}
	predictions := e.PredictFixtures(fixtures, asOf)

	require.Len(t, predictions, 2, "Only scheduled games get predictions")
	for _, p := range predictions {
		assert.InDelta(t, 1.0, p.HomeWinProb+p.AwayWinProb, 1e-12, "Probabilities must sum to one")
		assert.Greater(t, p.HomeWinProb, 0.0)
		assert.Less(t, p.HomeWinProb, 1.0)
		assert.Equal(t, asOf, p.AsOf)
	}

	// A won both games, so A should be favored wherever it plays
	assert.Greater(t, predictions[0].HomeWinProb, 0.5, "A at home is the favorite")
	assert.Less(t, predictions[1].HomeWinProb, 0.5, "B at home is still the underdog")

	assert.Equal(t, before, e.Snapshot(asOf), "Scoring fixtures must not move ratings")
}

func TestEngine_SnapshotSortedAndStamped(t *testing.T) {
	e := NewEngine(20, 1500)
	require.NoError(t, e.Replay([]models.Game{
		ratedGame(1, "Zebras", "Aardvarks", 1, 2),
	}))

	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	snapshot := e.Snapshot(asOf)

	require.Len(t, snapshot, 2)
	assert.Equal(t, "Aardvarks", snapshot[0].Team, "Snapshot should be sorted by team")
	assert.Equal(t, "Zebras", snapshot[1].Team)
	assert.Equal(t, 1, snapshot[0].GamesRated)
	assert.Equal(t, asOf, snapshot[0].RatingDate)
	assert.Greater(t, snapshot[0].Value, 1500.0, "Winner moved above the baseline")
	assert.Less(t, snapshot[1].Value, 1500.0, "Loser moved below the baseline")
}
