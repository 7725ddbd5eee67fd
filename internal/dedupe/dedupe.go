// Package dedupe collapses overlapping game records from multiple
// sources into exactly one survivor per natural key and guards dataset
// replacements against partial upstream fetches.
package dedupe

import (
	"sort"

	"scorebook/pipeline/internal/models"
)

// Dedupe returns one survivor per natural key. Survivors are chosen by
// quality (completed games with points beat fixtures), then source
// priority, then ingestion order (last seen wins). The result is sorted
// by natural key, so the output never depends on input arrival order
// and running Dedupe on its own output is a no-op.
func Dedupe(records []models.Game) []models.Game {
	sorted := make([]models.Game, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(&sorted[i], &sorted[j])
	})

	survivors := make([]models.Game, 0, len(sorted))
	var lastKey models.GameKey
	for i := range sorted {
		key := sorted[i].Key()
		if len(survivors) > 0 && key == lastKey {
			continue
		}
		survivors = append(survivors, sorted[i])
		lastKey = key
	}
	return survivors
}

// less orders records by natural key ascending, and within one key puts
// the record that should survive first.
func less(a, b *models.Game) bool {
	if !a.GameDate.Equal(b.GameDate) {
		return a.GameDate.Before(b.GameDate)
	}
	if a.HomeTeam != b.HomeTeam {
		return a.HomeTeam < b.HomeTeam
	}
	if a.AwayTeam != b.AwayTeam {
		return a.AwayTeam < b.AwayTeam
	}
	if a.Season != b.Season {
		return a.Season < b.Season
	}
	if a.Sequence != b.Sequence {
		return a.Sequence < b.Sequence
	}

	if qa, qb := a.Quality(), b.Quality(); qa != qb {
		return qa > qb
	}
	if pa, pb := a.Source.Priority(), b.Source.Priority(); pa != pb {
		return pa > pb
	}
	return a.IngestOrder > b.IngestOrder
}
