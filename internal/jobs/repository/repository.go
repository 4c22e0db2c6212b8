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
)

// Job is the database model for a job header.
type Job struct {
	ID            uuid.UUID  `db:"id"`
	JobNumber     string     `db:"job_number"`
	Status        string     `db:"status"`
	ContactID     uuid.UUID  `db:"contact_id"`
	Description   *string    `db:"description"`
	CreatedDate   *time.Time `db:"created_date"`
	StartDate     *time.Time `db:"start_date"`
	CompletedDate *time.Time `db:"completed_date"`
	DueDate       *time.Time `db:"due_date"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// ListParams contains parameters for listing jobs.
type ListParams struct {
	ContactID *uuid.UUID
	Status    *string
	Search    string
	Page      int
	PageSize  int
}

// ListResult contains the paginated result of listing jobs.
type ListResult struct {
	Items      []Job
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

const jobNotFoundMsg = "job not found"

const jobColumns = `id, job_number, status, contact_id, description,
		created_date, start_date, completed_date, due_date, created_at, updated_at`

// Repository provides database operations for jobs.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new jobs repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.JobNumber, &j.Status, &j.ContactID, &j.Description,
		&j.CreatedDate, &j.StartDate, &j.CompletedDate, &j.DueDate, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(jobNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return &j, nil
}

// Create inserts a new job.
func (r *Repository) Create(ctx context.Context, j *Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.pool.Exec(ctx, query,
		j.ID, j.JobNumber, j.Status, j.ContactID, j.Description,
		j.CreatedDate, j.StartDate, j.CompletedDate, j.DueDate, j.CreatedAt, j.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	return scanJob(r.pool.QueryRow(ctx, query, id))
}

// Update persists a job's mutable fields. Date columns are written as given;
// the service layer enforces the write-once rules against the stored row
// before calling this.
func (r *Repository) Update(ctx context.Context, j *Job) error {
	query := `
		UPDATE jobs SET
			status = $2, contact_id = $3, description = $4,
			created_date = $5, start_date = $6, completed_date = $7, due_date = $8,
			updated_at = $9
		WHERE id = $1`
	result, err := r.pool.Exec(ctx, query,
		j.ID, j.Status, j.ContactID, j.Description,
		j.CreatedDate, j.StartDate, j.CompletedDate, j.DueDate, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(jobNotFoundMsg)
	}
	return nil
}

// Delete removes a job.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(jobNotFoundMsg)
	}
	return nil
}

// List retrieves jobs with filtering and pagination.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	var contactParam interface{}
	if params.ContactID != nil {
		contactParam = *params.ContactID
	}
	var statusParam interface{}
	if params.Status != nil {
		statusParam = *params.Status
	}
	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	baseQuery := `
		FROM jobs
		WHERE ($1::uuid IS NULL OR contact_id = $1)
			AND ($2::text IS NULL OR status = $2)
			AND ($3::text IS NULL OR job_number ILIKE $3 OR description ILIKE $3)`
	args := []interface{}{contactParam, statusParam, searchParam}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	selectQuery := `SELECT ` + jobColumns + " " + baseQuery + `
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var items []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(
			&j.ID, &j.JobNumber, &j.Status, &j.ContactID, &j.Description,
			&j.CreatedDate, &j.StartDate, &j.CompletedDate, &j.DueDate, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		items = append(items, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// HasAcceptedEstimate reports whether the job already has an accepted
// estimate, optionally excluding one estimate ID (self).
func (r *Repository) HasAcceptedEstimate(ctx context.Context, jobID uuid.UUID, excludeEstimateID *uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM estimates
			WHERE job_id = $1 AND status = 'accepted'
				AND ($2::uuid IS NULL OR id <> $2)
		)`
	var excludeParam interface{}
	if excludeEstimateID != nil {
		excludeParam = *excludeEstimateID
	}
	if err := r.pool.QueryRow(ctx, query, jobID, excludeParam).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check accepted estimates: %w", err)
	}
	return exists, nil
}

// OpenJobCountForContact returns how many non-terminal jobs a contact has.
func (r *Repository) OpenJobCountForContact(ctx context.Context, contactID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM jobs
		WHERE contact_id = $1 AND status NOT IN ('rejected', 'completed', 'cancelled')`
	if err := r.pool.QueryRow(ctx, query, contactID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open jobs: %w", err)
	}
	return count, nil
}
