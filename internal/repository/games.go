package repository

import (
	"context"
	"fmt"

	"scorebook/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// GameRepository handles canonical dataset database operations
type GameRepository struct {
	db *Database
}

var gameColumns = []string{
	"game_date", "season", "sequence", "home_team", "away_team",
	"home_points", "away_points", "status", "source",
}

// Stats returns the stored dataset's row and season counts. The
// integrity guard compares these against a candidate replacement.
func (r *GameRepository) Stats(ctx context.Context) (models.DatasetStats, error) {
	query := `SELECT COUNT(*), COUNT(DISTINCT season) FROM games`

	var stats models.DatasetStats
	err := r.db.Pool.QueryRow(ctx, query).Scan(&stats.Rows, &stats.Seasons)
	if err != nil {
		return models.DatasetStats{}, fmt.Errorf("failed to read dataset stats: %w", err)
	}

	return stats, nil
}

// ReplaceAll swaps the stored dataset for the given one in a single
// transaction: either the new dataset lands completely or the old one
// stays untouched. Callers must run the integrity guard first.
func (r *GameRepository) ReplaceAll(ctx context.Context, games []models.Game) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM games`); err != nil {
		return fmt.Errorf("failed to clear games: %w", err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"games"},
		gameColumns,
		pgx.CopyFromSlice(len(games), func(i int) ([]interface{}, error) {
			g := &games[i]
			return []interface{}{
				g.GameDate, g.Season, g.Sequence, g.HomeTeam, g.AwayTeam,
				g.HomePoints, g.AwayPoints, g.Status, string(g.Source),
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy games: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dataset replacement: %w", err)
	}

	log.Debug().Int("rows", len(games)).Msg("Dataset replaced")
	return nil
}

// Upsert inserts or updates a single game by its natural key
func (r *GameRepository) Upsert(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (
			game_date, season, sequence, home_team, away_team,
			home_points, away_points, status, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_date, home_team, away_team, season, sequence) DO UPDATE SET
			home_points = EXCLUDED.home_points,
			away_points = EXCLUDED.away_points,
			status = EXCLUDED.status,
			source = EXCLUDED.source,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		game.GameDate, game.Season, game.Sequence, game.HomeTeam, game.AwayTeam,
		game.HomePoints, game.AwayPoints, game.Status, string(game.Source),
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}

	return nil
}

// GetByKey retrieves a game by its natural key
func (r *GameRepository) GetByKey(ctx context.Context, key models.GameKey) (*models.Game, error) {
	query := `
		SELECT id, game_date, season, sequence, home_team, away_team,
		       home_points, away_points, status, source, created_at, updated_at
		FROM games
		WHERE game_date = $1 AND home_team = $2 AND away_team = $3 AND season = $4 AND sequence = $5
	`

	var game models.Game
	err := r.db.Pool.QueryRow(ctx, query, key.Date, key.HomeTeam, key.AwayTeam, key.Season, key.Sequence).Scan(
		&game.ID, &game.GameDate, &game.Season, &game.Sequence, &game.HomeTeam, &game.AwayTeam,
		&game.HomePoints, &game.AwayPoints, &game.Status, &game.Source, &game.CreatedAt, &game.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("game not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return &game, nil
}

// List retrieves the full dataset ordered by natural key
func (r *GameRepository) List(ctx context.Context) ([]models.Game, error) {
	query := `
		SELECT id, game_date, season, sequence, home_team, away_team,
		       home_points, away_points, status, source, created_at, updated_at
		FROM games
		ORDER BY game_date, home_team, away_team, season, sequence
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// GetByStatus retrieves games by status ordered by date
func (r *GameRepository) GetByStatus(ctx context.Context, status string) ([]models.Game, error) {
	query := `
		SELECT id, game_date, season, sequence, home_team, away_team,
		       home_points, away_points, status, source, created_at, updated_at
		FROM games
		WHERE status = $1
		ORDER BY game_date, home_team, away_team, season, sequence
	`

	rows, err := r.db.Pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get games by status: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// GetBySeason retrieves one season's games ordered by date
func (r *GameRepository) GetBySeason(ctx context.Context, season int) ([]models.Game, error) {
	query := `
		SELECT id, game_date, season, sequence, home_team, away_team,
		       home_points, away_points, status, source, created_at, updated_at
		FROM games
		WHERE season = $1
		ORDER BY game_date, home_team, away_team, season, sequence
	`

	rows, err := r.db.Pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get games by season: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// Count returns the total number of games
func (r *GameRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM games`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}

	return count, nil
}

func scanGames(rows pgx.Rows) ([]models.Game, error) {
	var games []models.Game
	for rows.Next() {
		var game models.Game
		err := rows.Scan(
			&game.ID, &game.GameDate, &game.Season, &game.Sequence, &game.HomeTeam, &game.AwayTeam,
			&game.HomePoints, &game.AwayPoints, &game.Status, &game.Source, &game.CreatedAt, &game.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}
