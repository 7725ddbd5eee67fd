package features

// outcome is one completed game from a single team's perspective.
type outcome struct {
	win float64 // 1 win, 0.5 draw, 0 loss
	pf  int
	pa  int
}

// ring is a fixed-size trailing window over a team's outcomes with
// running sums, so attaching a statistic is O(1) per game instead of a
// rescan of the window.
type ring struct {
	size  int
	buf   []outcome
	head  int
	count int
	wins  float64
	pf    int
	pa    int
}

func newRing(size int) *ring {
	return &ring{size: size, buf: make([]outcome, size)}
}

func (r *ring) push(o outcome) {
	if r.count == r.size {
		old := r.buf[r.head]
		r.wins -= old.win
		r.pf -= old.pf
		r.pa -= old.pa
	} else {
		r.count++
	}
	r.buf[r.head] = o
	r.head = (r.head + 1) % r.size
	r.wins += o.win
	r.pf += o.pf
	r.pa += o.pa
}

// tracker carries one team's rolling state: a ring per window size plus
// season-to-date counters. Games feed it strictly in chronological
// order; the caller snapshots features before recording the game itself,
// which is what keeps a game's own result out of its own features.
type tracker struct {
	windows     []int
	rings       []*ring
	season      int
	seasonGames int
	seasonWins  float64
}

func newTracker(windows []int) *tracker {
	tr := &tracker{windows: windows, rings: make([]*ring, len(windows))}
	for i, w := range windows {
		tr.rings[i] = newRing(w)
	}
	return tr
}

// enterSeason resets the season-to-date counters when the team crosses
// into a new season.
func (tr *tracker) enterSeason(season int) {
	if tr.season != season {
		tr.season = season
		tr.seasonGames = 0
		tr.seasonWins = 0
	}
}

// features snapshots the pre-game statistics. A windowed statistic is
// defined only once its window is full; until then it reports the
// documented defaults (0.5 for win rates, 0.0 for point averages), so no
// NaN or null ever reaches the output. Season-to-date statistics are
// cumulative and defined from the team's second game of a season.
func (tr *tracker) features() map[string]float64 {
	out := make(map[string]float64, 4*len(tr.windows)+2)

	for i, w := range tr.rings {
		suffix := windowSuffix(tr.windows[i])
		if w.count < w.size {
			out[StatWinRate+suffix] = neutralWinRate
			out[StatPointsForAvg+suffix] = 0.0
			out[StatPointsAgainstAvg+suffix] = 0.0
			out[StatPointDiffAvg+suffix] = 0.0
			continue
		}
		n := float64(w.count)
		out[StatWinRate+suffix] = w.wins / n
		out[StatPointsForAvg+suffix] = float64(w.pf) / n
		out[StatPointsAgainstAvg+suffix] = float64(w.pa) / n
		out[StatPointDiffAvg+suffix] = float64(w.pf-w.pa) / n
	}

	if tr.seasonGames == 0 {
		out[StatSeasonWinPct] = neutralWinRate
	} else {
		out[StatSeasonWinPct] = tr.seasonWins / float64(tr.seasonGames)
	}
	out[StatSeasonGamesPlayed] = float64(tr.seasonGames)

	return out
}

// record feeds one completed game into every window and the season
// counters. Must be called after features() for the same game.
func (tr *tracker) record(o outcome) {
	for _, r := range tr.rings {
		r.push(o)
	}
	tr.seasonGames++
	tr.seasonWins += o.win
}
