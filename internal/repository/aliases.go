package repository

import (
	"context"
	"fmt"

	"scorebook/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// AliasRepository handles team alias table database operations
type AliasRepository struct {
	db *Database
}

// Create inserts a new alias mapping
func (r *AliasRepository) Create(ctx context.Context, alias *models.TeamAlias) error {
	query := `
		INSERT INTO team_aliases (raw_label, canonical_name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, alias.RawLabel, alias.CanonicalName).
		Scan(&alias.ID, &alias.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create alias: %w", err)
	}

	log.Debug().
		Int("id", alias.ID).
		Str("raw_label", alias.RawLabel).
		Str("canonical", alias.CanonicalName).
		Msg("Alias created")

	return nil
}

// Upsert inserts or updates an alias mapping (for alias table refresh)
func (r *AliasRepository) Upsert(ctx context.Context, alias *models.TeamAlias) error {
	query := `
		INSERT INTO team_aliases (raw_label, canonical_name)
		VALUES ($1, $2)
		ON CONFLICT (raw_label) DO UPDATE SET
			canonical_name = EXCLUDED.canonical_name
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, alias.RawLabel, alias.CanonicalName).
		Scan(&alias.ID, &alias.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert alias: %w", err)
	}

	return nil
}

// GetByLabel retrieves an alias by its raw label
func (r *AliasRepository) GetByLabel(ctx context.Context, rawLabel string) (*models.TeamAlias, error) {
	query := `
		SELECT id, raw_label, canonical_name, created_at
		FROM team_aliases
		WHERE raw_label = $1
	`

	var alias models.TeamAlias
	err := r.db.Pool.QueryRow(ctx, query, rawLabel).Scan(
		&alias.ID, &alias.RawLabel, &alias.CanonicalName, &alias.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("alias not found: raw_label=%s", rawLabel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alias: %w", err)
	}

	return &alias, nil
}

// List retrieves all alias mappings ordered by raw label. The resolver
// is built from this list at startup and after every seed.
func (r *AliasRepository) List(ctx context.Context) ([]models.TeamAlias, error) {
	query := `
		SELECT id, raw_label, canonical_name, created_at
		FROM team_aliases
		ORDER BY raw_label
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []models.TeamAlias
	for rows.Next() {
		var alias models.TeamAlias
		err := rows.Scan(&alias.ID, &alias.RawLabel, &alias.CanonicalName, &alias.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases = append(aliases, alias)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aliases: %w", err)
	}

	return aliases, nil
}

// SeedFrom upserts a batch of alias mappings, skipping rows with empty
// fields. Returns how many rows were written.
func (r *AliasRepository) SeedFrom(ctx context.Context, aliases []models.TeamAlias) (int, error) {
	seeded := 0
	for i := range aliases {
		alias := aliases[i]
		if alias.RawLabel == "" || alias.CanonicalName == "" {
			log.Warn().
				Str("raw_label", alias.RawLabel).
				Str("canonical", alias.CanonicalName).
				Msg("Skipping alias seed row with empty fields")
			continue
		}

		if err := r.Upsert(ctx, &alias); err != nil {
			return seeded, fmt.Errorf("failed to seed alias %q: %w", alias.RawLabel, err)
		}
		seeded++
	}

	log.Info().Int("count", seeded).Msg("Alias table seeded")
	return seeded, nil
}

// Delete deletes an alias mapping
func (r *AliasRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM team_aliases WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete alias: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("alias not found: id=%d", id)
	}

	log.Debug().Int("id", id).Msg("Alias deleted")
	return nil
}

// Count returns the total number of alias mappings
func (r *AliasRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM team_aliases`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count aliases: %w", err)
	}

	return count, nil
}
