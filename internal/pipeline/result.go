package pipeline

import (
	"errors"
	"time"

	"scorebook/pipeline/internal/models"
	"scorebook/pipeline/internal/normalize"

	"github.com/rs/zerolog/log"
)

// Reject reasons as they appear in metrics labels and run results.
const (
	RejectUnresolvedTeam = "unresolved_team"
	RejectMalformed      = "malformed_record"
)

// DefaultRejectSampleSize caps how many rejected records a run keeps
// verbatim for diagnosis. Counts are always complete.
const DefaultRejectSampleSize = 25

// RejectedRecord describes one raw record the normalizer refused.
type RejectedRecord struct {
	Index  int
	Source models.Source
	Reason string
	Detail string
}

// Result summarizes one pipeline run, including the full derived
// outputs so callers can export or inspect them without re-reading the
// stores.
type Result struct {
	AsOf time.Time

	RawRecords int
	Normalized int
	Rejected   int

	RejectCounts  map[string]int
	RejectSamples []RejectedRecord

	DroppedDuplicates int
	RatedGames        int

	Dataset     []models.Game
	Stats       models.DatasetStats
	Features    []models.FeatureRow
	Windows     []int
	Ratings     []models.Rating
	Predictions []models.Prediction

	Duration time.Duration
}

// rejectLog accumulates rejections during normalization: complete
// per-reason counts plus a bounded sample of the offending records.
type rejectLog struct {
	limit   int
	counts  map[string]int
	samples []RejectedRecord
}

func newRejectLog(limit int) *rejectLog {
	if limit <= 0 {
		limit = DefaultRejectSampleSize
	}
	return &rejectLog{
		limit:  limit,
		counts: make(map[string]int),
	}
}

func (l *rejectLog) add(index int, source models.Source, err error) {
	reason := rejectReason(err)
	l.counts[reason]++
	if len(l.samples) < l.limit {
		l.samples = append(l.samples, RejectedRecord{
			Index:  index,
			Source: source,
			Reason: reason,
			Detail: err.Error(),
		})
	}

	log.Warn().
		Int("record", index).
		Str("source", string(source)).
		Str("reason", reason).
		Err(err).
		Msg("Rejected raw record")
}

func (l *rejectLog) total() int {
	total := 0
	for _, n := range l.counts {
		total += n
	}
	return total
}

// rejectReason buckets a normalization error for metrics.
func rejectReason(err error) string {
	var unresolved *normalize.UnresolvedTeamError
	if errors.As(err, &unresolved) {
		return RejectUnresolvedTeam
	}
	return RejectMalformed
}
