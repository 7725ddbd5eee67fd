package repository

import (
	"context"
	"fmt"
	"time"

	"scorebook/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// RatingRepository handles rating snapshot database operations
type RatingRepository struct {
	db *Database
}

// SaveSnapshot upserts a full rating snapshot in a single transaction.
// Each row is keyed by (team, rating_date) so re-running a rebuild for
// the same as-of date overwrites the previous snapshot.
func (r *RatingRepository) SaveSnapshot(ctx context.Context, ratings []models.Rating) error {
	if len(ratings) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO ratings (team, value, games_rated, rating_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team, rating_date) DO UPDATE SET
			value = EXCLUDED.value,
			games_rated = EXCLUDED.games_rated,
			updated_at = NOW()
	`

	for i := range ratings {
		rating := &ratings[i]
		_, err := tx.Exec(ctx, query,
			rating.Team, rating.Value, rating.GamesRated, rating.RatingDate,
		)
		if err != nil {
			return fmt.Errorf("failed to save rating for %s: %w", rating.Team, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rating snapshot: %w", err)
	}

	log.Debug().
		Int("teams", len(ratings)).
		Time("rating_date", ratings[0].RatingDate).
		Msg("Rating snapshot saved")

	return nil
}

// ListByDate retrieves the rating snapshot for a given date ordered by team
func (r *RatingRepository) ListByDate(ctx context.Context, ratingDate time.Time) ([]models.Rating, error) {
	query := `
		SELECT id, team, value, games_rated, rating_date, created_at, updated_at
		FROM ratings
		WHERE rating_date = $1
		ORDER BY team
	`

	rows, err := r.db.Pool.Query(ctx, query, ratingDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var rating models.Rating
		err := rows.Scan(
			&rating.ID, &rating.Team, &rating.Value, &rating.GamesRated,
			&rating.RatingDate, &rating.CreatedAt, &rating.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

// GetByTeam retrieves the most recent rating for a team
func (r *RatingRepository) GetByTeam(ctx context.Context, team string) (*models.Rating, error) {
	query := `
		SELECT id, team, value, games_rated, rating_date, created_at, updated_at
		FROM ratings
		WHERE team = $1
		ORDER BY rating_date DESC
		LIMIT 1
	`

	var rating models.Rating
	err := r.db.Pool.QueryRow(ctx, query, team).Scan(
		&rating.ID, &rating.Team, &rating.Value, &rating.GamesRated,
		&rating.RatingDate, &rating.CreatedAt, &rating.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("rating not found: team=%s", team)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}

	return &rating, nil
}

// LatestDate returns the most recent snapshot date, or the zero time
// when no snapshot has been saved yet.
func (r *RatingRepository) LatestDate(ctx context.Context) (time.Time, error) {
	query := `SELECT COALESCE(MAX(rating_date), 'epoch'::timestamptz) FROM ratings`

	var latest time.Time
	err := r.db.Pool.QueryRow(ctx, query).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest rating date: %w", err)
	}

	if latest.Unix() == 0 {
		return time.Time{}, nil
	}

	return latest, nil
}

// Count returns the total number of rating rows
func (r *RatingRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM ratings`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}

	return count, nil
}
