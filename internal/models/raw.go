package models

// RawRecord is one unnormalized game row from any upstream source. Each
// source ships its own field names and types, so every shape gets its
// own struct and the normalizer adapts per shape.
type RawRecord interface {
	RecordSource() Source
}

// ScoreRow is the score feed's game shape. It is the only source that
// reports points and an explicit status code.
type ScoreRow struct {
	Season     int    `json:"Season"`
	DateTime   string `json:"DateTime"` // ISO 8601, provider local time
	HomeTeam   string `json:"HomeTeam"` // team code, e.g. "LAK"
	AwayTeam   string `json:"AwayTeam"`
	HomeScore  *int   `json:"HomeScore,omitempty"`
	AwayScore  *int   `json:"AwayScore,omitempty"`
	Status     string `json:"Status"` // provider status code
	GameNumber *int   `json:"GameNumber,omitempty"`
}

// RecordSource implements RawRecord.
func (r *ScoreRow) RecordSource() Source { return SourceScoreFeed }

// ScheduleRow is the schedule feed's fixture shape: date and team labels
// only, no points and no status.
type ScheduleRow struct {
	Season       int    `json:"Season,omitempty"`
	GameDate     string `json:"GameDate"`     // ISO 8601
	HomeTeamName string `json:"HomeTeamName"` // full name, e.g. "Los Angeles Kings"
	AwayTeamName string `json:"AwayTeamName"`
	GameNumber   *int   `json:"GameNumber,omitempty"`
}

// RecordSource implements RawRecord.
func (r *ScheduleRow) RecordSource() Source { return SourceScheduleFeed }

// ArchiveRow is one row of a legacy season-archive CSV. Archives predate
// the score feed and use snake_case headers with free-form team labels.
type ArchiveRow struct {
	Season  int    `csv:"season"`
	Date    string `csv:"date"` // YYYY-MM-DD
	Home    string `csv:"home"`
	Away    string `csv:"away"`
	HomePts *int   `csv:"home_pts"`
	AwayPts *int   `csv:"away_pts"`
	GameSeq *int   `csv:"game_seq"`
}

// RecordSource implements RawRecord.
func (r *ArchiveRow) RecordSource() Source { return SourceArchive }
