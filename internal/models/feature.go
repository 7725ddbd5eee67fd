package models

// FeatureRow attaches pre-game rolling statistics to one canonical game.
// Home holds the home team's own rolling history, Away the away team's,
// regardless of where either team played its prior games. Values are
// always present: empty histories get the documented defaults, never NaN.
type FeatureRow struct {
	Game Game
	Home map[string]float64
	Away map[string]float64
}
