// Package features computes per-team rolling statistics over the
// canonical dataset with shift-by-one semantics: every value attached to
// a game is computed strictly from that team's earlier games, so a
// game's own outcome can never leak into its own features.
package features

import (
	"sort"
	"strconv"

	"scorebook/pipeline/internal/models"
)

// Statistic base names. Windowed statistics get a _<window> suffix.
const (
	StatWinRate           = "win_rate"
	StatPointsForAvg      = "points_for_avg"
	StatPointsAgainstAvg  = "points_against_avg"
	StatPointDiffAvg      = "point_diff_avg"
	StatSeasonWinPct      = "season_win_pct"
	StatSeasonGamesPlayed = "season_games_played"
)

// neutralWinRate is the prior attached when a team has no history yet.
const neutralWinRate = 0.5

// DefaultWindows are the window sizes used when config supplies none.
var DefaultWindows = []int{5, 10}

func windowSuffix(w int) string {
	return "_" + strconv.Itoa(w)
}

// ColumnNames lists every statistic column the engine emits for the
// given windows, in stable order: windowed stats ascending by window,
// then the season-to-date pair. Exporters rely on this order.
func ColumnNames(windows []int) []string {
	windows = normalizeWindows(windows)
	names := make([]string, 0, 4*len(windows)+2)
	for _, w := range windows {
		suffix := windowSuffix(w)
		names = append(names,
			StatWinRate+suffix,
			StatPointsForAvg+suffix,
			StatPointsAgainstAvg+suffix,
			StatPointDiffAvg+suffix,
		)
	}
	return append(names, StatSeasonWinPct, StatSeasonGamesPlayed)
}

func normalizeWindows(windows []int) []int {
	cleaned := make([]int, 0, len(windows))
	seen := make(map[int]struct{}, len(windows))
	for _, w := range windows {
		if w <= 0 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		cleaned = append(cleaned, w)
	}
	if len(cleaned) == 0 {
		return append([]int(nil), DefaultWindows...)
	}
	sort.Ints(cleaned)
	return cleaned
}

// Engine computes feature rows for a batch of canonical games.
type Engine struct {
	windows []int
}

// NewEngine builds an engine for the given window sizes; non-positive
// and duplicate sizes are dropped and DefaultWindows apply when nothing
// is left.
func NewEngine(windows []int) *Engine {
	return &Engine{windows: normalizeWindows(windows)}
}

// Windows returns the effective window sizes, ascending.
func (e *Engine) Windows() []int {
	return append([]int(nil), e.windows...)
}

// Compute attaches pre-game rolling statistics to every game. Games are
// ordered chronologically (natural-key fields break date ties, so the
// result is deterministic for any input order); each team's state
// advances only on its completed games, in a single O(n) pass.
func (e *Engine) Compute(games []models.Game) []models.FeatureRow {
	ordered := make([]models.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool {
		return chronological(&ordered[i], &ordered[j])
	})

	trackers := make(map[string]*tracker)
	track := func(team string) *tracker {
		tr, ok := trackers[team]
		if !ok {
			tr = newTracker(e.windows)
			trackers[team] = tr
		}
		return tr
	}

	rows := make([]models.FeatureRow, len(ordered))
	for i := range ordered {
		g := &ordered[i]

		home := track(g.HomeTeam)
		away := track(g.AwayTeam)
		home.enterSeason(g.Season)
		away.enterSeason(g.Season)

		// Snapshot before recording: game i sees [i-W, i-1] only.
		rows[i] = models.FeatureRow{
			Game: *g,
			Home: home.features(),
			Away: away.features(),
		}

		if hp, ap, ok := g.Points(); ok && g.IsFinal() {
			home.record(outcome{win: winValue(hp, ap), pf: hp, pa: ap})
			away.record(outcome{win: winValue(ap, hp), pf: ap, pa: hp})
		}
	}

	return rows
}

// winValue scores a completed game from one side's perspective; draws
// count half.
func winValue(scored, allowed int) float64 {
	switch {
	case scored > allowed:
		return 1
	case scored < allowed:
		return 0
	default:
		return 0.5
	}
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
