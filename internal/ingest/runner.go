// Package ingest assembles raw record batches from every source and
// drives full pipeline runs. A run always rebuilds from the complete
// batch: archives for pre-feed seasons, the score feed from the first
// configured season forward, and the current season's fixture list.
package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"scorebook/pipeline/internal/archive"
	"scorebook/pipeline/internal/cache"
	"scorebook/pipeline/internal/client"
	"scorebook/pipeline/internal/config"
	"scorebook/pipeline/internal/export"
	"scorebook/pipeline/internal/metrics"
	"scorebook/pipeline/internal/models"
	"scorebook/pipeline/internal/pipeline"
	"scorebook/pipeline/internal/repository"
	"scorebook/pipeline/internal/teams"

	"github.com/rs/zerolog/log"
)

// Runner wires sources, the pipeline, and artifact publishing for one
// process. Cache and exporter are optional; a nil value just disables
// that concern.
type Runner struct {
	cfg      *config.Config
	feed     *client.Client
	db       *repository.Database
	cache    *cache.Cache
	exporter *export.Exporter
	loc      *time.Location
}

// NewRunner creates a runner for the given dependencies
func NewRunner(cfg *config.Config, feed *client.Client, db *repository.Database, c *cache.Cache, e *export.Exporter) *Runner {
	return &Runner{
		cfg:      cfg,
		feed:     feed,
		db:       db,
		cache:    c,
		exporter: e,
		loc:      cfg.Location(),
	}
}

// Run executes one full reconciliation pass: load the alias table,
// assemble the raw batch, run the pipeline, then publish caches and
// artifacts. Publishing is best-effort; the database writes inside the
// pipeline are the source of truth.
func (r *Runner) Run(ctx context.Context, trigger string) error {
	asOf := time.Now()

	log.Info().
		Str("trigger", trigger).
		Time("as_of", asOf).
		Msg("Starting reconciliation run")

	resolver, err := r.loadResolver(ctx)
	if err != nil {
		return fmt.Errorf("failed to load alias resolver: %w", err)
	}
	log.Debug().Int("teams", resolver.Size()).Msg("Alias resolver ready")

	raw, err := r.assembleBatch(ctx)
	if err != nil {
		return fmt.Errorf("failed to assemble raw batch: %w", err)
	}

	p := pipeline.New(resolver, r.loc, r.db.Games, r.db.Ratings, r.db.Predictions, pipeline.Config{
		Windows:          r.cfg.FeatureWindows,
		EloK:             r.cfg.EloK,
		EloBaseline:      r.cfg.EloBaseline,
		MinRowRatio:      r.cfg.MinRowRatio,
		Workers:          r.cfg.NormalizeWorkers,
		RejectSampleSize: r.cfg.RejectSampleSize,
	})

	result, err := p.Run(ctx, raw, asOf)
	if err != nil {
		return err
	}

	r.publish(ctx, result)

	log.Info().
		Str("trigger", trigger).
		Int("raw_records", result.RawRecords).
		Int("dataset_rows", len(result.Dataset)).
		Int("predictions", len(result.Predictions)).
		Dur("duration", result.Duration).
		Msg("Reconciliation run complete")

	return nil
}

// loadResolver builds the alias resolver, preferring the cache, then
// the database, seeding the alias table from file when it is empty.
func (r *Runner) loadResolver(ctx context.Context) (*teams.Resolver, error) {
	if r.cache != nil {
		if aliases, ok := r.cache.GetAliases(ctx); ok {
			return teams.NewResolver(aliases), nil
		}
	}

	aliases, err := r.db.Aliases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}

	if len(aliases) == 0 && r.cfg.AliasSeedFile != "" {
		if _, statErr := os.Stat(r.cfg.AliasSeedFile); statErr == nil {
			log.Info().Str("file", r.cfg.AliasSeedFile).Msg("Alias table empty, seeding from file")

			seeds, err := archive.LoadAliasSeeds(r.cfg.AliasSeedFile)
			if err != nil {
				return nil, err
			}

			if _, err := r.db.Aliases.SeedFrom(ctx, seeds); err != nil {
				return nil, err
			}

			aliases, err = r.db.Aliases.List(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list aliases after seeding: %w", err)
			}
		}
	}

	if len(aliases) == 0 {
		return nil, fmt.Errorf("alias table is empty and no seed file is available")
	}

	if r.cache != nil {
		if err := r.cache.SetAliases(ctx, aliases); err != nil {
			log.Warn().Err(err).Msg("Failed to cache alias table")
		}
	}

	return teams.NewResolver(aliases), nil
}

// assembleBatch gathers every raw record for a full rebuild. Source
// order is fixed (archives, then feed scores season by season, then the
// current fixture list) so ingestion order is reproducible run to run.
func (r *Runner) assembleBatch(ctx context.Context) ([]models.RawRecord, error) {
	var raw []models.RawRecord

	archiveRows := 0
	if r.cfg.ArchiveDir != "" {
		if _, err := os.Stat(r.cfg.ArchiveDir); err == nil {
			rows, err := archive.LoadSeasonDir(r.cfg.ArchiveDir)
			if err != nil {
				return nil, err
			}
			raw = append(raw, archive.AsRawRecords(rows)...)
			archiveRows = len(rows)
		} else {
			log.Warn().Str("dir", r.cfg.ArchiveDir).Msg("Archive directory missing, skipping archives")
		}
	}

	current, err := r.feed.FetchCurrentSeason(ctx)
	if err != nil {
		return nil, err
	}

	scoreRows := 0
	for season := r.cfg.FirstSeason; season <= current; season++ {
		scores, err := r.feed.FetchSeasonScores(ctx, season)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch scores for season %d: %w", season, err)
		}
		for i := range scores {
			raw = append(raw, &scores[i])
		}
		scoreRows += len(scores)
	}

	schedule, err := r.feed.FetchSeasonSchedule(ctx, current)
	if err != nil {
		return nil, err
	}
	for i := range schedule {
		raw = append(raw, &schedule[i])
	}

	log.Info().
		Int("archive_rows", archiveRows).
		Int("score_rows", scoreRows).
		Int("schedule_rows", len(schedule)).
		Int("total", len(raw)).
		Msg("Raw batch assembled")

	return raw, nil
}

// publish pushes the run's outputs to the cache and artifact directory
func (r *Runner) publish(ctx context.Context, result *pipeline.Result) {
	if r.cache != nil {
		if err := r.cache.SetLatestRatings(ctx, result.Ratings); err != nil {
			log.Warn().Err(err).Msg("Failed to cache rating snapshot")
			metrics.RecordError("cache", "write_failed")
		}
	}

	if r.exporter == nil {
		return
	}

	if _, err := r.exporter.WriteDataset(result.Dataset); err != nil {
		log.Error().Err(err).Msg("Failed to write dataset artifact")
		metrics.RecordError("export", "dataset")
	}
	if _, err := r.exporter.WriteFeatures(result.Features, result.Windows); err != nil {
		log.Error().Err(err).Msg("Failed to write features artifact")
		metrics.RecordError("export", "features")
	}
	if _, err := r.exporter.WriteRatings(result.Ratings); err != nil {
		log.Error().Err(err).Msg("Failed to write ratings artifact")
		metrics.RecordError("export", "ratings")
	}
	if _, err := r.exporter.WritePredictions(result.Predictions); err != nil {
		log.Error().Err(err).Msg("Failed to write predictions artifact")
		metrics.RecordError("export", "predictions")
	}
}
