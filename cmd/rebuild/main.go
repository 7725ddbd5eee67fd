// Command rebuild runs one full pipeline pass from the command line and
// exits. It recomputes the dataset, ratings, and predictions from every
// configured source, which makes it the recovery path when the worker's
// scheduled runs have been down or an archive file was corrected.
package main

import (
	"context"
	"fmt"

	"scorebook/pipeline/internal/client"
	"scorebook/pipeline/internal/config"
	"scorebook/pipeline/internal/export"
	"scorebook/pipeline/internal/ingest"
	"scorebook/pipeline/internal/repository"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     fmt.Sprintf("%d", cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// 1. Validate database connectivity
	log.Info().Msg("Validating service health...")
	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	// 2. Wire the feed client and optional artifact exporter
	feed := client.NewClient(cfg.ScoreFeedBaseURL, cfg.ScoreFeedAPIKey, cfg.ScoreFeedTimeout)

	var exporter *export.Exporter
	if cfg.ExportEnabled {
		exporter, err = export.NewExporter(cfg.ArtifactDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare artifact directory")
		}
	}

	// 3. Run one full pipeline pass. The cache is skipped so a manual
	// rebuild always reads aliases straight from the database.
	runner := ingest.NewRunner(cfg, feed, db, nil, exporter)
	if err := runner.Run(ctx, "manual"); err != nil {
		log.Fatal().Err(err).Msg("Rebuild failed")
	}

	log.Info().Msg("Manual rebuild complete.")
}
