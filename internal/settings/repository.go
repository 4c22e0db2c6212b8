package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Setting is a single app-wide configuration row. Values are stored as plain
// strings; callers parse them into their own types.
type Setting struct {
	Key         string    `db:"key"`
	Value       string    `db:"value"`
	Description *string   `db:"description"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Repository provides database operations for app settings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new settings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the raw value for a key, or apperr.NotFound.
func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM app_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("setting not found")
		}
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// Set upserts a setting value.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.pool.Exec(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// List returns all settings ordered by key.
func (r *Repository) List(ctx context.Context) ([]Setting, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, description, updated_at FROM app_settings ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var items []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}
	return items, nil
}
