// Package pipeline runs one full reconciliation pass: normalize raw
// source rows into canonical games, deduplicate them, verify the
// integrity guard against the stored dataset, then derive rolling
// features, ratings, and fixture predictions from the survivors.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scorebook/pipeline/internal/dedupe"
	"scorebook/pipeline/internal/features"
	"scorebook/pipeline/internal/metrics"
	"scorebook/pipeline/internal/models"
	"scorebook/pipeline/internal/normalize"
	"scorebook/pipeline/internal/ratings"
	"scorebook/pipeline/internal/teams"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

// DatasetStore persists the canonical dataset.
type DatasetStore interface {
	Stats(ctx context.Context) (models.DatasetStats, error)
	ReplaceAll(ctx context.Context, games []models.Game) error
}

// RatingStore persists rating snapshots.
type RatingStore interface {
	SaveSnapshot(ctx context.Context, ratings []models.Rating) error
}

// PredictionStore persists fixture predictions.
type PredictionStore interface {
	SaveAll(ctx context.Context, predictions []models.Prediction) error
}

// Config tunes one pipeline instance. Zero values fall back to package
// defaults, so an empty Config is usable.
type Config struct {
	Windows          []int
	EloK             float64
	EloBaseline      float64
	MinRowRatio      float64
	Workers          int
	RejectSampleSize int
}

const defaultWorkers = 8

// Pipeline wires the run stages over a team resolver and the three
// stores. Each Run builds its own normalizer and engines, so one
// Pipeline serves many runs.
type Pipeline struct {
	resolver    *teams.Resolver
	loc         *time.Location
	dataset     DatasetStore
	ratings     RatingStore
	predictions PredictionStore
	cfg         Config
}

// New creates a pipeline. loc is the reference timezone used to turn
// source timestamps and the as-of instant into civil dates.
func New(resolver *teams.Resolver, loc *time.Location, dataset DatasetStore, ratingStore RatingStore, predictionStore PredictionStore, cfg Config) *Pipeline {
	return &Pipeline{
		resolver:    resolver,
		loc:         loc,
		dataset:     dataset,
		ratings:     ratingStore,
		predictions: predictionStore,
		cfg:         cfg,
	}
}

// Run executes one pass over a raw batch. asOf is the caller-supplied
// processing instant: it decides status derivation for scoreless
// records, which fixtures get predictions, and the stamp on emitted
// ratings. A guard violation aborts the run before anything is written.
func (p *Pipeline) Run(ctx context.Context, raw []models.RawRecord, asOf time.Time) (*Result, error) {
	start := time.Now()

	log.Info().
		Int("raw_records", len(raw)).
		Time("as_of", asOf).
		Msg("Starting pipeline run")

	normalized, rejects, err := p.normalizeAll(raw, asOf)
	if err != nil {
		return nil, err
	}
	metrics.RecordNormalized(len(normalized))
	for reason, count := range rejects.counts {
		metrics.RecordRejected(reason, count)
	}

	dataset := dedupe.Dedupe(normalized)
	dropped := len(normalized) - len(dataset)
	metrics.RecordDedupe(dropped)

	prev, err := p.dataset.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored dataset stats: %w", err)
	}
	if err := dedupe.VerifyAgainst(prev, dataset, p.cfg.MinRowRatio); err != nil {
		metrics.RecordGuardViolation()
		log.Error().
			Err(err).
			Int("prev_rows", prev.Rows).
			Int("prev_seasons", prev.Seasons).
			Int("new_rows", len(dataset)).
			Msg("Integrity guard rejected replacement dataset")
		return nil, err
	}

	if err := p.dataset.ReplaceAll(ctx, dataset); err != nil {
		return nil, fmt.Errorf("failed to replace dataset: %w", err)
	}
	stats := dedupe.Summarize(dataset)
	metrics.UpdateDatasetStats(stats.Rows, stats.Seasons)

	engine := features.NewEngine(p.cfg.Windows)
	featureRows := engine.Compute(dataset)

	elo := ratings.NewEngine(p.cfg.EloK, p.cfg.EloBaseline)
	if err := elo.Replay(dataset); err != nil {
		return nil, err
	}
	snapshot := elo.Snapshot(asOf)
	metrics.RecordRatings(elo.Applied(), len(snapshot))

	fixtures := upcomingFixtures(dataset, civilDate(asOf, p.loc))
	predictions := elo.PredictFixtures(fixtures, asOf)

	if err := p.ratings.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save rating snapshot: %w", err)
	}
	if err := p.predictions.SaveAll(ctx, predictions); err != nil {
		return nil, fmt.Errorf("failed to save predictions: %w", err)
	}
	metrics.RecordPredictions(len(predictions))

	result := &Result{
		AsOf:              asOf,
		RawRecords:        len(raw),
		Normalized:        len(normalized),
		Rejected:          rejects.total(),
		RejectCounts:      rejects.counts,
		RejectSamples:     rejects.samples,
		DroppedDuplicates: dropped,
		RatedGames:        elo.Applied(),
		Dataset:           dataset,
		Stats:             stats,
		Features:          featureRows,
		Windows:           engine.Windows(),
		Ratings:           snapshot,
		Predictions:       predictions,
		Duration:          time.Since(start),
	}

	log.Info().
		Int("raw_records", result.RawRecords).
		Int("normalized", result.Normalized).
		Int("rejected", result.Rejected).
		Int("dataset_rows", stats.Rows).
		Int("seasons", stats.Seasons).
		Int("duplicates_dropped", dropped).
		Int("rated_games", result.RatedGames).
		Int("ratings", len(snapshot)).
		Int("predictions", len(predictions)).
		Dur("duration", result.Duration).
		Msg("Pipeline run complete")

	return result, nil
}

// normalizeAll converts the raw batch in parallel. Workers write into
// index-addressed slices and the fold runs in input order afterwards,
// so the output (reject samples included) does not depend on pool
// scheduling. IngestOrder is the record's position in the batch.
func (p *Pipeline) normalizeAll(raw []models.RawRecord, asOf time.Time) ([]models.Game, *rejectLog, error) {
	normalizer := normalize.New(p.resolver, p.loc, asOf)

	games := make([]*models.Game, len(raw))
	errs := make([]error, len(raw))

	if len(raw) > 0 {
		pool, err := ants.NewPool(p.workerCount(len(raw)))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create normalize pool: %w", err)
		}
		defer pool.Release()

		var wg sync.WaitGroup
		for i := range raw {
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				games[i], errs[i] = normalizer.Normalize(raw[i])
			}); err != nil {
				// Pool refused the task; normalize inline rather than
				// lose the record.
				games[i], errs[i] = normalizer.Normalize(raw[i])
				wg.Done()
			}
		}
		wg.Wait()
	}

	normalized := make([]models.Game, 0, len(raw))
	rejects := newRejectLog(p.cfg.RejectSampleSize)
	for i := range raw {
		if errs[i] != nil {
			rejects.add(i, raw[i].RecordSource(), errs[i])
			continue
		}
		game := *games[i]
		game.IngestOrder = i
		normalized = append(normalized, game)
	}
	return normalized, rejects, nil
}

func (p *Pipeline) workerCount(tasks int) int {
	workers := p.cfg.Workers
	if workers < 1 {
		workers = defaultWorkers
	}
	if tasks < workers {
		workers = tasks
	}
	return workers
}

// upcomingFixtures selects the scheduled games worth predicting:
// fixtures dated on or after the as-of date. Stale fixtures that never
// got a result stay in the dataset but get no prediction.
func upcomingFixtures(dataset []models.Game, asOfDate time.Time) []models.Game {
	fixtures := make([]models.Game, 0)
	for i := range dataset {
		if dataset[i].IsScheduled() && !dataset[i].GameDate.Before(asOfDate) {
			fixtures = append(fixtures, dataset[i])
		}
	}
	return fixtures
}

// civilDate truncates an instant to its civil date in loc, stored as
// midnight UTC to match game dates.
func civilDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
