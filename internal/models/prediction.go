package models

import "time"

// Prediction is a win-probability estimate for an unplayed fixture,
// together with the pre-game ratings that produced it. Keyed by the
// fixture's natural key plus the as-of date of the run, so successive
// runs leave an audit trail of how the estimate moved.
type Prediction struct {
	ID       int       `db:"id"`
	GameDate time.Time `db:"game_date"`
	Season   int       `db:"season"`
	Sequence int       `db:"sequence"`
	HomeTeam string    `db:"home_team"`
	AwayTeam string    `db:"away_team"`

	HomeWinProb float64 `db:"home_win_prob"`
	AwayWinProb float64 `db:"away_win_prob"`
	HomeRating  float64 `db:"home_rating"`
	AwayRating  float64 `db:"away_rating"`

	AsOf      time.Time `db:"as_of"`
	CreatedAt time.Time `db:"created_at"`
}

// FixtureKey returns the natural key of the predicted game.
func (p *Prediction) FixtureKey() GameKey {
	return GameKey{
		Date:     p.GameDate.Format("2006-01-02"),
		HomeTeam: p.HomeTeam,
		AwayTeam: p.AwayTeam,
		Season:   p.Season,
		Sequence: p.Sequence,
	}
}
