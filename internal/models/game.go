package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Game statuses as stored in the canonical dataset.
const (
	StatusScheduled  = "Scheduled"
	StatusInProgress = "InProgress"
	StatusFinal      = "Final"
)

// Source identifies which upstream feed a record came from.
type Source string

const (
	SourceScoreFeed    Source = "scorefeed"
	SourceArchive      Source = "archive"
	SourceScheduleFeed Source = "schedule"
)

// Priority orders sources for dedup tie-breaks. The score feed is the
// authoritative source for completed games; schedule feeds only know
// about fixtures.
func (s Source) Priority() int {
	switch s {
	case SourceScoreFeed:
		return 3
	case SourceArchive:
		return 2
	case SourceScheduleFeed:
		return 1
	default:
		return 0
	}
}

// Game is the canonical record for one real-world game after alias
// resolution and normalization. Team names are canonical, the date is a
// civil date in the reference timezone, and season is the start year.
type Game struct {
	ID       int       `db:"id"`
	GameDate time.Time `db:"game_date"`
	Season   int       `db:"season"`
	Sequence int       `db:"sequence"`
	HomeTeam string    `db:"home_team"`
	AwayTeam string    `db:"away_team"`

	HomePoints sql.NullInt32 `db:"home_points"`
	AwayPoints sql.NullInt32 `db:"away_points"`

	Status string `db:"status"`
	Source Source `db:"source"`

	// IngestOrder is the record's position within the raw batch. It is
	// only meaningful during a run (dedup tie-breaks) and is not stored.
	IngestOrder int `db:"-"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GameKey is the natural key identifying one real-world game. Sequence
// disambiguates doubleheaders and is zero when the source supplies none.
type GameKey struct {
	Date     string
	HomeTeam string
	AwayTeam string
	Season   int
	Sequence int
}

func (k GameKey) String() string {
	return fmt.Sprintf("%s %s vs %s season=%d seq=%d", k.Date, k.HomeTeam, k.AwayTeam, k.Season, k.Sequence)
}

// Key returns the game's natural key.
func (g *Game) Key() GameKey {
	return GameKey{
		Date:     g.DateKey(),
		HomeTeam: g.HomeTeam,
		AwayTeam: g.AwayTeam,
		Season:   g.Season,
		Sequence: g.Sequence,
	}
}

// DateKey returns the civil date as YYYY-MM-DD.
func (g *Game) DateKey() string {
	return g.GameDate.Format("2006-01-02")
}

// IsActive returns true if the game is currently in progress.
func (g *Game) IsActive() bool {
	return g.Status == StatusInProgress
}

// IsScheduled returns true if the game is scheduled but not started.
func (g *Game) IsScheduled() bool {
	return g.Status == StatusScheduled
}

// IsFinal returns true if the game is completed.
func (g *Game) IsFinal() bool {
	return g.Status == StatusFinal
}

// HasPoints returns true when both point values are present.
func (g *Game) HasPoints() bool {
	return g.HomePoints.Valid && g.AwayPoints.Valid
}

// Points returns both point values; ok is false unless both are present.
func (g *Game) Points() (home, away int, ok bool) {
	if !g.HasPoints() {
		return 0, 0, false
	}
	return int(g.HomePoints.Int32), int(g.AwayPoints.Int32), true
}

// Quality ranks how trustworthy a record is when several sources
// describe the same game. Computed at dedup time, never stored.
func (g *Game) Quality() int {
	switch {
	case g.IsFinal() && g.HasPoints():
		return 3
	case g.HasPoints():
		return 2
	case g.IsActive():
		return 1
	default:
		return 0
	}
}

// DatasetStats summarizes a stored canonical dataset for the integrity
// guard: how many rows it holds and how many distinct seasons it covers.
type DatasetStats struct {
	Rows    int
	Seasons int
}
