// Package ratings maintains Elo-style strength ratings over the
// canonical dataset and turns them into win probabilities for unplayed
// fixtures. Ratings cross-couple every team through shared game
// outcomes, so updates are strictly sequential across the whole league.
package ratings

import (
	"fmt"
	"math"
	"sort"
	"time"

	"scorebook/pipeline/internal/models"
)

const (
	// DefaultK is the fixed update step per game.
	DefaultK = 20.0
	// DefaultBaseline is the rating every team starts from.
	DefaultBaseline = 1500.0
)

// OutOfOrderError reports an attempt to apply a game dated before one
// already applied. Out-of-order updates corrupt every rating computed
// afterwards, so the engine refuses instead of producing wrong numbers.
type OutOfOrderError struct {
	Applied time.Time
	Next    time.Time
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf(
		"rating update out of order: game dated %s after already applying %s",
		e.Next.Format("2006-01-02"), e.Applied.Format("2006-01-02"),
	)
}

// Expected returns the home side's expected score against the away side:
// 1 / (1 + 10^((rAway-rHome)/400)). Always in (0,1) and 0.5 for equal
// ratings.
func Expected(rHome, rAway float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rAway-rHome)/400.0))
}

// UpdatePair applies one observed result to a rating pair. scoreHome is
// 1 for a home win, 0 for a home loss, 0.5 for a draw. The update is
// zero-sum: whatever the home side gains the away side loses.
func UpdatePair(rHome, rAway, scoreHome, k float64) (newHome, newAway float64) {
	delta := k * (scoreHome - Expected(rHome, rAway))
	return rHome + delta, rAway - delta
}

// Engine owns the per-team rating state for one batch run. It is not
// safe for concurrent use and is not meant to be: chronological order is
// the whole contract.
type Engine struct {
	k        float64
	baseline float64
	values   map[string]float64
	played   map[string]int
	applied  int
	lastDate time.Time
}

// NewEngine builds an empty engine; non-positive parameters fall back to
// the defaults.
func NewEngine(k, baseline float64) *Engine {
	if k <= 0 {
		k = DefaultK
	}
	if baseline <= 0 {
		baseline = DefaultBaseline
	}
	return &Engine{
		k:        k,
		baseline: baseline,
		values:   make(map[string]float64),
		played:   make(map[string]int),
	}
}

// Rating returns a team's current rating; teams not yet seen sit at the
// baseline.
func (e *Engine) Rating(team string) float64 {
	if v, ok := e.values[team]; ok {
		return v
	}
	return e.baseline
}

// ExpectedHomeWinProb queries the current snapshot without mutating it.
func (e *Engine) ExpectedHomeWinProb(home, away string) float64 {
	return Expected(e.Rating(home), e.Rating(away))
}

// Apply feeds one completed game into the ratings. Games must arrive in
// non-decreasing date order; scheduled or scoreless games are a caller
// bug here (Replay filters them out before calling).
func (e *Engine) Apply(game *models.Game) error {
	homePts, awayPts, ok := game.Points()
	if !game.IsFinal() || !ok {
		return fmt.Errorf("cannot rate unfinished game %s", game.Key())
	}
	if game.GameDate.Before(e.lastDate) {
		return &OutOfOrderError{Applied: e.lastDate, Next: game.GameDate}
	}

	score := 0.5
	switch {
	case homePts > awayPts:
		score = 1
	case homePts < awayPts:
		score = 0
	}

	newHome, newAway := UpdatePair(e.Rating(game.HomeTeam), e.Rating(game.AwayTeam), score, e.k)
	e.values[game.HomeTeam] = newHome
	e.values[game.AwayTeam] = newAway
	e.played[game.HomeTeam]++
	e.played[game.AwayTeam]++
	e.applied++
	e.lastDate = game.GameDate

	return nil
}

// Replay builds ratings by applying every completed game in the batch in
// chronological order. Scheduled and in-progress games are skipped, not
// rated. Replaying the same batch from a fresh engine always lands on
// identical ratings.
func (e *Engine) Replay(games []models.Game) error {
	ordered := make([]models.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool {
		return chronological(&ordered[i], &ordered[j])
	})

	for i := range ordered {
		if !ordered[i].IsFinal() || !ordered[i].HasPoints() {
			continue
		}
		if err := e.Apply(&ordered[i]); err != nil {
			return fmt.Errorf("failed to replay game history: %w", err)
		}
	}
	return nil
}

// Applied returns how many completed games have fed the ratings.
func (e *Engine) Applied() int {
	return e.applied
}

// Snapshot returns every rated team sorted by name, stamped with the
// run's as-of date.
func (e *Engine) Snapshot(asOf time.Time) []models.Rating {
	teams := make([]string, 0, len(e.values))
	for team := range e.values {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	snapshot := make([]models.Rating, len(teams))
	for i, team := range teams {
		snapshot[i] = models.Rating{
			Team:       team,
			Value:      e.values[team],
			GamesRated: e.played[team],
			RatingDate: asOf,
		}
	}
	return snapshot
}

// PredictFixtures scores unplayed fixtures read-only against the current
// ratings. Fixture order among themselves does not matter; the output is
// sorted by natural key for stable artifacts.
func (e *Engine) PredictFixtures(fixtures []models.Game, asOf time.Time) []models.Prediction {
	ordered := make([]models.Game, len(fixtures))
	copy(ordered, fixtures)
	sort.SliceStable(ordered, func(i, j int) bool {
		return chronological(&ordered[i], &ordered[j])
	})

	predictions := make([]models.Prediction, 0, len(ordered))
	for i := range ordered {
		g := &ordered[i]
		if !g.IsScheduled() {
			continue
		}
		pHome := e.ExpectedHomeWinProb(g.HomeTeam, g.AwayTeam)
		predictions = append(predictions, models.Prediction{
			GameDate:    g.GameDate,
			Season:      g.Season,
			Sequence:    g.Sequence,
			HomeTeam:    g.HomeTeam,
			AwayTeam:    g.AwayTeam,
			HomeWinProb: pHome,
			AwayWinProb: 1 - pHome,
			HomeRating:  e.Rating(g.HomeTeam),
			AwayRating:  e.Rating(g.AwayTeam),
			AsOf:        asOf,
		})
	}
	return predictions
}

// chronological orders games by date with natural-key tie-breaks.
func chronological(a, b *models.Game) bool {
	if !a.GameDate.Equal(b.GameDate) {
		return a.GameDate.Before(b.GameDate)
	}
	if a.Sequence != b.Sequence {
		return a.Sequence < b.Sequence
	}
	if a.HomeTeam != b.HomeTeam {
		return a.HomeTeam < b.HomeTeam
	}
	if a.AwayTeam != b.AwayTeam {
		return a.AwayTeam < b.AwayTeam
	}
	return a.Season < b.Season
}
