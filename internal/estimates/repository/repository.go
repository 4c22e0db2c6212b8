package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Estimate is a versioned proposal tied to a job.
type Estimate struct {
	ID             uuid.UUID  `db:"id"`
	JobID          uuid.UUID  `db:"job_id"`
	EstimateNumber string     `db:"estimate_number"`
	Version        int        `db:"version"`
	Status         string     `db:"status"`
	ParentID       *uuid.UUID `db:"parent_id"`
	CreatedDate    *time.Time `db:"created_date"`
	SentDate       *time.Time `db:"sent_date"`
	ClosedDate     *time.Time `db:"closed_date"`
	ExpirationDate *time.Time `db:"expiration_date"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// LineItem is a priced output row of an estimate. The total is qty times
// price, computed not stored.
type LineItem struct {
	ID              uuid.UUID        `db:"id"`
	EstimateID      uuid.UUID        `db:"estimate_id"`
	TaskID          *uuid.UUID       `db:"task_id"`
	PriceListItemID *uuid.UUID       `db:"price_list_item_id"`
	LineNumber      int              `db:"line_number"`
	Description     string           `db:"description"`
	Qty             decimal.Decimal  `db:"qty"`
	Units           string           `db:"units"`
	Price           decimal.Decimal  `db:"price"`
	LineItemTypeID  *uuid.UUID       `db:"line_item_type_id"`
	TaxableOverride *bool            `db:"taxable_override"`
	TaxRateOverride *decimal.Decimal `db:"tax_rate_override"`
	CreatedAt       time.Time        `db:"created_at"`
}

// Total returns qty times price.
func (li *LineItem) Total() decimal.Decimal {
	return li.Qty.Mul(li.Price)
}

const estimateNotFoundMsg = "estimate not found"

// Repository provides database operations for estimates and their line
// items.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new estimates repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ── Estimates ─────────────────────────────────────────────────────────────────

const estimateColumns = `id, job_id, estimate_number, version, status, parent_id,
		created_date, sent_date, closed_date, expiration_date, created_at, updated_at`

func scanEstimate(row pgx.Row) (*Estimate, error) {
	var e Estimate
	err := row.Scan(&e.ID, &e.JobID, &e.EstimateNumber, &e.Version, &e.Status, &e.ParentID,
		&e.CreatedDate, &e.SentDate, &e.ClosedDate, &e.ExpirationDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(estimateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan estimate: %w", err)
	}
	return &e, nil
}

// Get returns one estimate by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Estimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM estimates WHERE id = $1`
	return scanEstimate(r.pool.QueryRow(ctx, query, id))
}

// ListByJob returns all estimates for a job, newest version first.
func (r *Repository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]Estimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM estimates
		WHERE job_id = $1 ORDER BY version DESC, created_at DESC`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	var out []Estimate
	for rows.Next() {
		var e Estimate
		if err := rows.Scan(&e.ID, &e.JobID, &e.EstimateNumber, &e.Version, &e.Status, &e.ParentID,
			&e.CreatedDate, &e.SentDate, &e.ClosedDate, &e.ExpirationDate, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update persists an estimate's status and date fields.
func (r *Repository) Update(ctx context.Context, e *Estimate) error {
	query := `
		UPDATE estimates SET status = $2, created_date = $3, sent_date = $4,
			closed_date = $5, expiration_date = $6, updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, e.ID, e.Status, e.CreatedDate, e.SentDate,
		e.ClosedDate, e.ExpirationDate)
	if err != nil {
		return fmt.Errorf("failed to update estimate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(estimateNotFoundMsg)
	}
	return nil
}

// AcceptedExists reports whether the job has an accepted estimate other than
// the one excluded.
func (r *Repository) AcceptedExists(ctx context.Context, jobID uuid.UUID, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM estimates
			WHERE job_id = $1 AND status = 'accepted' AND ($2::uuid IS NULL OR id <> $2)
		)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, jobID, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check accepted estimates: %w", err)
	}
	return exists, nil
}

// ── Line items ────────────────────────────────────────────────────────────────

const lineItemColumns = `id, estimate_id, task_id, price_list_item_id, line_number,
		description, qty, units, price, line_item_type_id, taxable_override,
		tax_rate_override, created_at`

// LineItemsByEstimate returns an estimate's line items in line-number order.
func (r *Repository) LineItemsByEstimate(ctx context.Context, estimateID uuid.UUID) ([]LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM estimate_line_items
		WHERE estimate_id = $1 ORDER BY line_number`
	rows, err := r.pool.Query(ctx, query, estimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	defer rows.Close()

	var out []LineItem
	for rows.Next() {
		var li LineItem
		if err := rows.Scan(&li.ID, &li.EstimateID, &li.TaskID, &li.PriceListItemID, &li.LineNumber,
			&li.Description, &li.Qty, &li.Units, &li.Price, &li.LineItemTypeID, &li.TaxableOverride,
			&li.TaxRateOverride, &li.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

// ── Composite writes ──────────────────────────────────────────────────────────

// CreateWithLines persists a new estimate and its line items, links the
// originating worksheet, and supersedes the parent estimate row when one is
// given, all in one transaction.
func (r *Repository) CreateWithLines(ctx context.Context, e *Estimate, lines []LineItem, worksheetID uuid.UUID, supersededParent *Estimate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO estimates (`+estimateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.JobID, e.EstimateNumber, e.Version, e.Status, e.ParentID,
		e.CreatedDate, e.SentDate, e.ClosedDate, e.ExpirationDate, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create estimate: %w", err)
	}

	for _, li := range lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO estimate_line_items (`+lineItemColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			li.ID, e.ID, li.TaskID, li.PriceListItemID, li.LineNumber, li.Description,
			li.Qty, li.Units, li.Price, li.LineItemTypeID, li.TaxableOverride,
			li.TaxRateOverride, li.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create line item: %w", err)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE est_worksheets SET estimate_id = $2, updated_at = now() WHERE id = $1`,
		worksheetID, e.ID)
	if err != nil {
		return fmt.Errorf("failed to link worksheet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("worksheet not found")
	}

	if supersededParent != nil {
		_, err = tx.Exec(ctx, `
			UPDATE estimates SET status = $2, closed_date = $3, updated_at = now()
			WHERE id = $1`,
			supersededParent.ID, supersededParent.Status, supersededParent.ClosedDate)
		if err != nil {
			return fmt.Errorf("failed to supersede parent estimate: %w", err)
		}
	}

	return tx.Commit(ctx)
}
