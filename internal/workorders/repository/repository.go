// Package repository provides database access for work orders.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	wsrepo "fieldops_backend/internal/worksheets/repository"
	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkOrder is the execution-side document created from an accepted
// estimate. Its tasks live in the shared tasks table with work_order_id set.
type WorkOrder struct {
	ID              uuid.UUID  `db:"id"`
	JobID           uuid.UUID  `db:"job_id"`
	EstimateID      *uuid.UUID `db:"estimate_id"`
	WorkOrderNumber string     `db:"work_order_number"`
	Status          string     `db:"status"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

const workOrderNotFoundMsg = "work order not found"

// Repository provides database operations for work orders.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new work orders repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const workOrderColumns = `id, job_id, estimate_id, work_order_number, status,
		created_at, updated_at`

func scanWorkOrder(row pgx.Row) (*WorkOrder, error) {
	var w WorkOrder
	err := row.Scan(&w.ID, &w.JobID, &w.EstimateID, &w.WorkOrderNumber, &w.Status,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(workOrderNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan work order: %w", err)
	}
	return &w, nil
}

// CreateWithTasks inserts a work order and its tasks in one transaction.
func (r *Repository) CreateWithTasks(ctx context.Context, w *WorkOrder, tasks []wsrepo.Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO work_orders (id, job_id, estimate_id, work_order_number, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.JobID, w.EstimateID, w.WorkOrderNumber, w.Status, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create work order: %w", err)
	}

	for i := range tasks {
		t := &tasks[i]
		err := tx.QueryRow(ctx, `
			INSERT INTO tasks (id, worksheet_id, work_order_id, parent_task_id, template_id,
				line_item_type_id, bundle_id, assignee, name, description, units, rate,
				est_qty, sort_order, mapping_strategy, bundle_identifier, product_type,
				step_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
				$16, $17, $18, $19, $20)
			RETURNING seq`,
			t.ID, t.WorksheetID, t.WorkOrderID, t.ParentTaskID, t.TemplateID,
			t.LineItemTypeID, t.BundleID, t.Assignee, t.Name, t.Description, t.Units,
			t.Rate, t.EstQty, t.SortOrder, t.MappingStrategy, t.BundleIdentifier,
			t.ProductType, t.StepType, t.CreatedAt, t.UpdatedAt).Scan(&t.Seq)
		if err != nil {
			return fmt.Errorf("failed to create work order task: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit work order creation: %w", err)
	}
	return nil
}

// Get returns one work order by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE id = $1`
	return scanWorkOrder(r.pool.QueryRow(ctx, query, id))
}

// ListByJob returns a job's work orders, newest first.
func (r *Repository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders
		WHERE job_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	defer rows.Close()

	var out []WorkOrder
	for rows.Next() {
		var w WorkOrder
		if err := rows.Scan(&w.ID, &w.JobID, &w.EstimateID, &w.WorkOrderNumber,
			&w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work order: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpdateStatus persists a work order status change.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE work_orders SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("failed to update work order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(workOrderNotFoundMsg)
	}
	return nil
}

// ExistsForEstimate reports whether a work order was already created from the
// given estimate.
func (r *Repository) ExistsForEstimate(ctx context.Context, estimateID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM work_orders WHERE estimate_id = $1)`,
		estimateID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check work order existence: %w", err)
	}
	return exists, nil
}

// TasksByWorkOrder returns a work order's tasks in container order.
func (r *Repository) TasksByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]wsrepo.Task, error) {
	query := `SELECT id, worksheet_id, work_order_id, parent_task_id, template_id,
			line_item_type_id, bundle_id, assignee, name, description, units, rate,
			est_qty, sort_order, seq, mapping_strategy, bundle_identifier,
			product_type, step_type, created_at, updated_at
		FROM tasks WHERE work_order_id = $1
		ORDER BY sort_order, seq`
	rows, err := r.pool.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work order tasks: %w", err)
	}
	defer rows.Close()

	var out []wsrepo.Task
	for rows.Next() {
		var t wsrepo.Task
		err := rows.Scan(&t.ID, &t.WorksheetID, &t.WorkOrderID, &t.ParentTaskID, &t.TemplateID,
			&t.LineItemTypeID, &t.BundleID, &t.Assignee, &t.Name, &t.Description, &t.Units,
			&t.Rate, &t.EstQty, &t.SortOrder, &t.Seq, &t.MappingStrategy, &t.BundleIdentifier,
			&t.ProductType, &t.StepType, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work order task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
