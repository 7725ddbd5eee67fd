package models

import "time"

// Rating is one team's strength value in a persisted snapshot. A
// snapshot is keyed by (team, rating_date) so historical snapshots stay
// queryable for audit.
type Rating struct {
	ID         int       `db:"id"`
	Team       string    `db:"team"`
	Value      float64   `db:"rating"`
	GamesRated int       `db:"games_rated"`
	RatingDate time.Time `db:"rating_date"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
