package normalize

import (
	"database/sql"
	"strings"
	"time"

	"scorebook/pipeline/internal/models"
	"scorebook/pipeline/internal/teams"
)

// Seasons span two calendar years; games from August onward belong to
// the season starting that year, earlier games to the previous one.
const seasonBoundaryMonth = time.August

// timestamp layouts accepted from upstream sources, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalizer converts raw source rows into canonical game records. It is
// a pure transform: the reference location and the as-of instant are
// fixed at construction, so the same input always yields the same
// output. Records it cannot make sense of are rejected with a typed
// error, never coerced.
type Normalizer struct {
	resolver *teams.Resolver
	loc      *time.Location
	asOfDate time.Time
}

// New builds a normalizer. loc is the reference timezone all source
// timestamps are converted into before the civil date is extracted;
// asOf is the caller-supplied processing instant (never the system
// clock).
func New(resolver *teams.Resolver, loc *time.Location, asOf time.Time) *Normalizer {
	local := asOf.In(loc)
	return &Normalizer{
		resolver: resolver,
		loc:      loc,
		asOfDate: time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
	}
}

// Normalize adapts one raw row into a canonical record, or returns an
// UnresolvedTeamError / MalformedRecordError describing why the row was
// rejected.
func (n *Normalizer) Normalize(raw models.RawRecord) (*models.Game, error) {
	switch r := raw.(type) {
	case *models.ScoreRow:
		return n.normalizeScore(r)
	case *models.ScheduleRow:
		return n.normalizeSchedule(r)
	case *models.ArchiveRow:
		return n.normalizeArchive(r)
	default:
		return nil, malformed("unknown", "unrecognized source shape %T", raw)
	}
}

func (n *Normalizer) normalizeScore(r *models.ScoreRow) (*models.Game, error) {
	source := r.RecordSource()

	date, err := n.civilDate(r.DateTime, source)
	if err != nil {
		return nil, err
	}
	home, away, err := n.resolvePair(r.HomeTeam, r.AwayTeam, source)
	if err != nil {
		return nil, err
	}
	homePts, awayPts, err := pointsFor(r.HomeScore, r.AwayScore, source)
	if err != nil {
		return nil, err
	}

	game := &models.Game{
		GameDate:   date,
		Season:     seasonFor(r.Season, date),
		Sequence:   sequenceValue(r.GameNumber),
		HomeTeam:   home,
		AwayTeam:   away,
		HomePoints: homePts,
		AwayPoints: awayPts,
		Source:     source,
	}

	status, err := n.deriveStatus(r.Status, game)
	if err != nil {
		return nil, err
	}
	game.Status = status

	return game, nil
}

func (n *Normalizer) normalizeSchedule(r *models.ScheduleRow) (*models.Game, error) {
	source := r.RecordSource()

	date, err := n.civilDate(r.GameDate, source)
	if err != nil {
		return nil, err
	}
	home, away, err := n.resolvePair(r.HomeTeamName, r.AwayTeamName, source)
	if err != nil {
		return nil, err
	}

	// Schedule feeds carry no points and no status by shape.
	return &models.Game{
		GameDate: date,
		Season:   seasonFor(r.Season, date),
		Sequence: sequenceValue(r.GameNumber),
		HomeTeam: home,
		AwayTeam: away,
		Status:   models.StatusScheduled,
		Source:   source,
	}, nil
}

func (n *Normalizer) normalizeArchive(r *models.ArchiveRow) (*models.Game, error) {
	source := r.RecordSource()

	date, err := n.civilDate(r.Date, source)
	if err != nil {
		return nil, err
	}
	home, away, err := n.resolvePair(r.Home, r.Away, source)
	if err != nil {
		return nil, err
	}
	homePts, awayPts, err := pointsFor(r.HomePts, r.AwayPts, source)
	if err != nil {
		return nil, err
	}

	game := &models.Game{
		GameDate:   date,
		Season:     seasonFor(r.Season, date),
		Sequence:   sequenceValue(r.GameSeq),
		HomeTeam:   home,
		AwayTeam:   away,
		HomePoints: homePts,
		AwayPoints: awayPts,
		Source:     source,
	}

	// Archives have no status column: points and the calendar decide.
	status, err := n.deriveStatus("", game)
	if err != nil {
		return nil, err
	}
	game.Status = status

	return game, nil
}

// resolvePair canonicalizes both team labels and rejects records whose
// teams cannot be resolved or collapse into each other.
func (n *Normalizer) resolvePair(rawHome, rawAway string, source models.Source) (home, away string, err error) {
	if strings.TrimSpace(rawHome) == "" || strings.TrimSpace(rawAway) == "" {
		return "", "", malformed(source, "missing team label (home=%q away=%q)", rawHome, rawAway)
	}

	home, ok := n.resolver.Resolve(rawHome)
	if !ok {
		return "", "", &UnresolvedTeamError{Label: rawHome, Source: source}
	}
	away, ok = n.resolver.Resolve(rawAway)
	if !ok {
		return "", "", &UnresolvedTeamError{Label: rawAway, Source: source}
	}
	if home == away {
		return "", "", malformed(source, "home and away labels resolve to the same team %q", home)
	}
	return home, away, nil
}

// civilDate parses a source timestamp, converts it into the reference
// location, and truncates to the civil date (stored as midnight UTC so
// date comparisons stay timezone-free downstream).
func (n *Normalizer) civilDate(value string, source models.Source) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, malformed(source, "missing game date")
	}

	for _, layout := range timestampLayouts {
		var parsed time.Time
		var err error
		if layout == time.RFC3339 {
			parsed, err = time.Parse(layout, value)
		} else {
			parsed, err = time.ParseInLocation(layout, value, n.loc)
		}
		if err == nil {
			local := parsed.In(n.loc)
			return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, malformed(source, "unparseable game date %q", value)
}

// deriveStatus reconciles the explicit status marker (if any) with the
// points actually present on the record.
func (n *Normalizer) deriveStatus(code string, game *models.Game) (string, error) {
	marker, err := statusMarker(code, game.Source)
	if err != nil {
		return "", err
	}

	switch marker {
	case models.StatusFinal:
		if !game.HasPoints() {
			return "", malformed(game.Source, "final status without both point values")
		}
		return models.StatusFinal, nil

	case models.StatusInProgress:
		return models.StatusInProgress, nil

	case models.StatusScheduled:
		if game.HomePoints.Valid || game.AwayPoints.Valid {
			return "", malformed(game.Source, "scheduled status with point values present")
		}
		return models.StatusScheduled, nil
	}

	// No explicit status: points decide first.
	if game.HasPoints() {
		return models.StatusFinal, nil
	}
	if game.HomePoints.Valid || game.AwayPoints.Valid {
		return "", malformed(game.Source, "only one point value present without a status")
	}
	// Scoreless with nothing reported: a future fixture is Scheduled; a
	// game dated on or before the as-of date is presumed underway.
	if game.GameDate.After(n.asOfDate) {
		return models.StatusScheduled, nil
	}
	return models.StatusInProgress, nil
}

// statusMarker maps provider status codes onto the canonical statuses.
// An empty code means the source reported nothing.
func statusMarker(code string, source models.Source) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "":
		return "", nil
	case "FINAL", "F", "F/OT", "F/SO", "CLOSED", "COMPLETE":
		return models.StatusFinal, nil
	case "INPROGRESS", "IN PROGRESS", "LIVE", "HALFTIME":
		return models.StatusInProgress, nil
	case "SCHEDULED", "PREGAME", "UPCOMING", "POSTPONED":
		return models.StatusScheduled, nil
	default:
		return "", malformed(source, "unrecognized status code %q", code)
	}
}

// seasonFor trusts the source's season when present and otherwise
// derives it from the civil date.
func seasonFor(season int, date time.Time) int {
	if season > 0 {
		return season
	}
	if date.Month() >= seasonBoundaryMonth {
		return date.Year()
	}
	return date.Year() - 1
}

func sequenceValue(seq *int) int {
	if seq == nil || *seq < 0 {
		return 0
	}
	return *seq
}

func pointsFor(home, away *int, source models.Source) (homePts, awayPts sql.NullInt32, err error) {
	if home != nil {
		if *home < 0 {
			return homePts, awayPts, malformed(source, "negative home points %d", *home)
		}
		homePts = sql.NullInt32{Int32: int32(*home), Valid: true}
	}
	if away != nil {
		if *away < 0 {
			return homePts, awayPts, malformed(source, "negative away points %d", *away)
		}
		awayPts = sql.NullInt32{Int32: int32(*away), Valid: true}
	}
	return homePts, awayPts, nil
}
