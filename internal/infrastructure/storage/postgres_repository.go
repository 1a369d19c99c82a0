// Package storage persists processed recipes into Postgres for audit and
// warm-starting the deduplication history.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"RecipeRadar/internal/domain"
	"RecipeRadar/internal/ports"
)

// PostgresRepository stores each processed recipe, duplicates included,
// keyed by its deduplication fingerprint.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RecipeRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation. A nil db turns
// the repository into a no-op, matching a deployment without Postgres.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// KnownFingerprints returns the most recent non-duplicate fingerprints,
// newest first, up to limit. Used to warm up the dedup history on start.
func (r *PostgresRepository) KnownFingerprints(ctx context.Context, limit int) ([]string, error) {
	if r.db == nil || limit <= 0 {
		return nil, nil
	}

	query, args, err := r.builder.
		Select("fingerprint").
		From("recipes").
		Where(sq.Eq{"duplicate": false}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}

	var fingerprints []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		fingerprints = append(fingerprints, fp)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return fingerprints, nil
}

// SaveRecipe upserts the recipe snapshot. The structured payload goes
// into a jsonb column; the hot filter columns are stored flat.
func (r *PostgresRepository) SaveRecipe(ctx context.Context, recipe *domain.Recipe) error {
	if r.db == nil {
		return nil
	}

	payload, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}

	query, args, err := r.builder.
		Insert("recipes").
		Columns("id", "fingerprint", "title", "slug", "source_type", "source_url",
			"category", "tags", "viral_score", "duplicate", "published", "payload", "created_at").
		Values(recipe.ID, recipe.Fingerprint, recipe.Title, recipe.Slug,
			string(recipe.Source.Type), recipe.Source.URL,
			recipe.Category, pq.StringArray(recipe.Tags),
			recipe.Audit.ConfidenceScore, recipe.Duplicate, recipe.Plan.Publish,
			payload, recipe.Audit.CreatedAt).
		Suffix(`ON CONFLICT (fingerprint) DO UPDATE
				SET viral_score = EXCLUDED.viral_score,
				    duplicate = EXCLUDED.duplicate,
				    published = EXCLUDED.published,
				    payload = EXCLUDED.payload,
				    updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert recipe: %w", err)
	}

	return nil
}
