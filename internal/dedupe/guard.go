package dedupe

import (
	"fmt"

	"scorebook/pipeline/internal/models"
)

// DefaultMinRowRatio is the smallest fraction of the stored row count a
// replacement dataset may shrink to before the guard treats the run as
// a partial fetch.
const DefaultMinRowRatio = 0.95

// IntegrityGuardError aborts a dataset replacement that would lose
// history: fewer distinct seasons than the stored snapshot, or a row
// count below the configured fraction of it. It is fatal for the run;
// nothing may be written once it fires.
type IntegrityGuardError struct {
	PrevRows    int
	NewRows     int
	PrevSeasons int
	NewSeasons  int
	MinRowRatio float64
}

func (e *IntegrityGuardError) Error() string {
	return fmt.Sprintf(
		"integrity guard: refusing to replace dataset (seasons %d -> %d, rows %d -> %d, min row ratio %.2f)",
		e.PrevSeasons, e.NewSeasons, e.PrevRows, e.NewRows, e.MinRowRatio,
	)
}

// Summarize computes the guard statistics of an in-memory dataset.
func Summarize(records []models.Game) models.DatasetStats {
	seasons := make(map[int]struct{})
	for i := range records {
		seasons[records[i].Season] = struct{}{}
	}
	return models.DatasetStats{Rows: len(records), Seasons: len(seasons)}
}

// VerifyAgainst checks a deduped dataset against the stored snapshot's
// statistics before anything is overwritten. minRowRatio <= 0 falls back
// to DefaultMinRowRatio.
func VerifyAgainst(prev models.DatasetStats, records []models.Game, minRowRatio float64) error {
	if minRowRatio <= 0 {
		minRowRatio = DefaultMinRowRatio
	}

	stats := Summarize(records)
	if stats.Seasons < prev.Seasons || float64(stats.Rows) < minRowRatio*float64(prev.Rows) {
		return &IntegrityGuardError{
			PrevRows:    prev.Rows,
			NewRows:     stats.Rows,
			PrevSeasons: prev.Seasons,
			NewSeasons:  stats.Seasons,
			MinRowRatio: minRowRatio,
		}
	}
	return nil
}
