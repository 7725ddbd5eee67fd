package repository

import (
	"context"
	"fmt"
	"time"

	"scorebook/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// ListUnpredictedFixtures retrieves scheduled games on or after the as-of
// date that don't have a prediction for that as-of yet
func (r *GameRepository) ListUnpredictedFixtures(ctx context.Context, asOf time.Time) ([]models.Game, error) {
	query := `
		SELECT g.id, g.game_date, g.season, g.sequence, g.home_team, g.away_team,
		       g.home_points, g.away_points, g.status, g.source, g.created_at, g.updated_at
		FROM games g
		LEFT JOIN predictions p
		  ON p.game_date = g.game_date
		  AND p.home_team = g.home_team
		  AND p.away_team = g.away_team
		  AND p.season = g.season
		  AND p.sequence = g.sequence
		  AND p.as_of = $1
		WHERE p.id IS NULL
		  AND g.status = 'Scheduled'
		  AND g.game_date >= $1::date
		ORDER BY g.game_date, g.home_team, g.away_team, g.season, g.sequence
	`

	rows, err := r.db.Pool.Query(ctx, query, asOf)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query unpredicted fixtures")
		return nil, fmt.Errorf("failed to list unpredicted fixtures: %w", err)
	}
	defer rows.Close()

	games, err := scanGames(rows)
	if err != nil {
		return nil, err
	}

	log.Info().Int("count", len(games)).Msg("Unpredicted fixtures retrieved")
	return games, nil
}
