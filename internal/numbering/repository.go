package numbering

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides the shared atomic counters behind document numbers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new numbering repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Increment atomically bumps the counter for a document type and returns the
// new value. The upsert serializes concurrent callers on the counter row, so
// two requests can never receive the same number.
func (r *Repository) Increment(ctx context.Context, docType string) (int, error) {
	var next int
	query := `
		INSERT INTO document_counters (document_type, last_number)
		VALUES ($1, 1)
		ON CONFLICT (document_type) DO UPDATE SET last_number = document_counters.last_number + 1
		RETURNING last_number`

	if err := r.pool.QueryRow(ctx, query, docType).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to increment %s counter: %w", docType, err)
	}
	return next, nil
}
