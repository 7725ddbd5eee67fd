package repository

import (
	"context"
	"fmt"
	"time"

	"scorebook/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// PredictionRepository handles fixture prediction database operations
type PredictionRepository struct {
	db *Database
}

// SaveAll upserts one run's predictions in a single transaction. A
// fixture predicted again with the same as-of instant is overwritten;
// different as-of instants accumulate as an audit trail.
func (r *PredictionRepository) SaveAll(ctx context.Context, predictions []models.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO predictions (
			game_date, season, sequence, home_team, away_team,
			home_win_prob, away_win_prob, home_rating, away_rating, as_of
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_date, home_team, away_team, season, sequence, as_of) DO UPDATE SET
			home_win_prob = EXCLUDED.home_win_prob,
			away_win_prob = EXCLUDED.away_win_prob,
			home_rating = EXCLUDED.home_rating,
			away_rating = EXCLUDED.away_rating
	`

	for i := range predictions {
		p := &predictions[i]
		_, err := tx.Exec(ctx, query,
			p.GameDate, p.Season, p.Sequence, p.HomeTeam, p.AwayTeam,
			p.HomeWinProb, p.AwayWinProb, p.HomeRating, p.AwayRating, p.AsOf,
		)
		if err != nil {
			return fmt.Errorf("failed to save prediction for %s: %w", p.FixtureKey(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit predictions: %w", err)
	}

	log.Debug().Int("count", len(predictions)).Msg("Predictions saved")
	return nil
}

// GetByFixture retrieves the most recent prediction for a fixture
func (r *PredictionRepository) GetByFixture(ctx context.Context, key models.GameKey) (*models.Prediction, error) {
	query := `
		SELECT id, game_date, season, sequence, home_team, away_team,
		       home_win_prob, away_win_prob, home_rating, away_rating, as_of, created_at
		FROM predictions
		WHERE game_date = $1 AND home_team = $2 AND away_team = $3 AND season = $4 AND sequence = $5
		ORDER BY as_of DESC
		LIMIT 1
	`

	pred := &models.Prediction{}
	err := r.db.Pool.QueryRow(ctx, query, key.Date, key.HomeTeam, key.AwayTeam, key.Season, key.Sequence).Scan(
		&pred.ID, &pred.GameDate, &pred.Season, &pred.Sequence, &pred.HomeTeam, &pred.AwayTeam,
		&pred.HomeWinProb, &pred.AwayWinProb, &pred.HomeRating, &pred.AwayRating, &pred.AsOf, &pred.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	return pred, nil
}

// ListByAsOf retrieves every prediction a run emitted, ordered by fixture
func (r *PredictionRepository) ListByAsOf(ctx context.Context, asOf time.Time) ([]models.Prediction, error) {
	query := `
		SELECT id, game_date, season, sequence, home_team, away_team,
		       home_win_prob, away_win_prob, home_rating, away_rating, as_of, created_at
		FROM predictions
		WHERE as_of = $1
		ORDER BY game_date, home_team, away_team, season, sequence
	`

	rows, err := r.db.Pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.Prediction
	for rows.Next() {
		var pred models.Prediction
		err := rows.Scan(
			&pred.ID, &pred.GameDate, &pred.Season, &pred.Sequence, &pred.HomeTeam, &pred.AwayTeam,
			&pred.HomeWinProb, &pred.AwayWinProb, &pred.HomeRating, &pred.AwayRating, &pred.AsOf, &pred.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, pred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return predictions, nil
}

// DeleteByFixture removes every prediction for a fixture (for corrections)
func (r *PredictionRepository) DeleteByFixture(ctx context.Context, key models.GameKey) error {
	query := `
		DELETE FROM predictions
		WHERE game_date = $1 AND home_team = $2 AND away_team = $3 AND season = $4 AND sequence = $5
	`

	result, err := r.db.Pool.Exec(ctx, query, key.Date, key.HomeTeam, key.AwayTeam, key.Season, key.Sequence)
	if err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}

	log.Warn().Int64("rows_affected", result.RowsAffected()).Str("fixture", key.String()).Msg("Predictions deleted")
	return nil
}
