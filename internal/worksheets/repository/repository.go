package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops_backend/internal/bundling"
	"fieldops_backend/internal/worksheets/domain"
	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Worksheet is a draft workspace for assembling tasks before estimate
// generation.
type Worksheet struct {
	ID         uuid.UUID  `db:"id"`
	JobID      uuid.UUID  `db:"job_id"`
	TemplateID *uuid.UUID `db:"template_id"`
	EstimateID *uuid.UUID `db:"estimate_id"`
	Status     string     `db:"status"`
	Version    int        `db:"version"`
	ParentID   *uuid.UUID `db:"parent_id"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// Task is a unit of work on a worksheet or a work order, never both.
type Task struct {
	ID               uuid.UUID       `db:"id"`
	WorksheetID      *uuid.UUID      `db:"worksheet_id"`
	WorkOrderID      *uuid.UUID      `db:"work_order_id"`
	ParentTaskID     *uuid.UUID      `db:"parent_task_id"`
	TemplateID       *uuid.UUID      `db:"template_id"`
	LineItemTypeID   *uuid.UUID      `db:"line_item_type_id"`
	BundleID         *uuid.UUID      `db:"bundle_id"`
	Assignee         *string         `db:"assignee"`
	Name             string          `db:"name"`
	Description      *string         `db:"description"`
	Units            string          `db:"units"`
	Rate             decimal.Decimal `db:"rate"`
	EstQty           decimal.Decimal `db:"est_qty"`
	SortOrder        int             `db:"sort_order"`
	Seq              int64           `db:"seq"`
	MappingStrategy  string          `db:"mapping_strategy"`
	BundleIdentifier *string         `db:"bundle_identifier"`
	ProductType      *string         `db:"product_type"`
	StepType         *string         `db:"step_type"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// TaskBundle is a named aggregation of tasks within one container.
type TaskBundle struct {
	ID                     uuid.UUID  `db:"id"`
	WorksheetID            *uuid.UUID `db:"worksheet_id"`
	WorkOrderID            *uuid.UUID `db:"work_order_id"`
	Name                   string     `db:"name"`
	Description            *string    `db:"description"`
	LineItemTypeID         uuid.UUID  `db:"line_item_type_id"`
	SortOrder              int        `db:"sort_order"`
	SourceTemplateBundleID *uuid.UUID `db:"source_template_bundle_id"`
	CreatedAt              time.Time  `db:"created_at"`
}

const (
	worksheetNotFoundMsg = "worksheet not found"
	taskNotFoundMsg      = "task not found"
	bundleNotFoundMsg    = "bundle not found"
)

// Repository provides database operations for worksheets, tasks, and task
// bundles.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new worksheets repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ── Worksheets ────────────────────────────────────────────────────────────────

const worksheetColumns = `id, job_id, template_id, estimate_id, status, version,
		parent_id, created_at, updated_at`

func scanWorksheet(row pgx.Row) (*Worksheet, error) {
	var w Worksheet
	err := row.Scan(&w.ID, &w.JobID, &w.TemplateID, &w.EstimateID, &w.Status,
		&w.Version, &w.ParentID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(worksheetNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan worksheet: %w", err)
	}
	return &w, nil
}

// CreateWorksheet inserts a new worksheet.
func (r *Repository) CreateWorksheet(ctx context.Context, w *Worksheet) error {
	query := `
		INSERT INTO est_worksheets (` + worksheetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query, w.ID, w.JobID, w.TemplateID, w.EstimateID,
		w.Status, w.Version, w.ParentID, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create worksheet: %w", err)
	}
	return nil
}

// GetWorksheet returns one worksheet by id.
func (r *Repository) GetWorksheet(ctx context.Context, id uuid.UUID) (*Worksheet, error) {
	query := `SELECT ` + worksheetColumns + ` FROM est_worksheets WHERE id = $1`
	return scanWorksheet(r.pool.QueryRow(ctx, query, id))
}

// ListWorksheetsByJob returns all worksheets for a job, newest version first.
func (r *Repository) ListWorksheetsByJob(ctx context.Context, jobID uuid.UUID) ([]Worksheet, error) {
	query := `SELECT ` + worksheetColumns + ` FROM est_worksheets
		WHERE job_id = $1 ORDER BY version DESC, created_at DESC`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}
	defer rows.Close()

	var out []Worksheet
	for rows.Next() {
		var w Worksheet
		if err := rows.Scan(&w.ID, &w.JobID, &w.TemplateID, &w.EstimateID, &w.Status,
			&w.Version, &w.ParentID, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan worksheet: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpdateWorksheetStatus sets the worksheet status.
func (r *Repository) UpdateWorksheetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE est_worksheets SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update worksheet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(worksheetNotFoundMsg)
	}
	return nil
}

// SetEstimate records the estimate generated from this worksheet.
func (r *Repository) SetEstimate(ctx context.Context, id uuid.UUID, estimateID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE est_worksheets SET estimate_id = $2, updated_at = now() WHERE id = $1`, id, estimateID)
	if err != nil {
		return fmt.Errorf("failed to link worksheet to estimate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(worksheetNotFoundMsg)
	}
	return nil
}

// WorksheetForEstimate returns the worksheet linked to the given estimate,
// or a not-found error.
func (r *Repository) WorksheetForEstimate(ctx context.Context, estimateID uuid.UUID) (*Worksheet, error) {
	query := `SELECT ` + worksheetColumns + ` FROM est_worksheets WHERE estimate_id = $1`
	return scanWorksheet(r.pool.QueryRow(ctx, query, estimateID))
}

// ── Tasks ─────────────────────────────────────────────────────────────────────

const taskColumns = `id, worksheet_id, work_order_id, parent_task_id, template_id,
		line_item_type_id, bundle_id, assignee, name, description, units, rate,
		est_qty, sort_order, seq, mapping_strategy, bundle_identifier,
		product_type, step_type, created_at, updated_at`

func scanTaskRow(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.WorksheetID, &t.WorkOrderID, &t.ParentTaskID, &t.TemplateID,
		&t.LineItemTypeID, &t.BundleID, &t.Assignee, &t.Name, &t.Description, &t.Units,
		&t.Rate, &t.EstQty, &t.SortOrder, &t.Seq, &t.MappingStrategy, &t.BundleIdentifier,
		&t.ProductType, &t.StepType, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(taskNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return &t, nil
}

// CreateTask inserts a new task. The insertion sequence is assigned by the
// database and read back into t.Seq.
func (r *Repository) CreateTask(ctx context.Context, t *Task) error {
	query := `
		INSERT INTO tasks (id, worksheet_id, work_order_id, parent_task_id, template_id,
			line_item_type_id, bundle_id, assignee, name, description, units, rate,
			est_qty, sort_order, mapping_strategy, bundle_identifier, product_type,
			step_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20)
		RETURNING seq`
	err := r.pool.QueryRow(ctx, query, t.ID, t.WorksheetID, t.WorkOrderID, t.ParentTaskID,
		t.TemplateID, t.LineItemTypeID, t.BundleID, t.Assignee, t.Name, t.Description,
		t.Units, t.Rate, t.EstQty, t.SortOrder, t.MappingStrategy, t.BundleIdentifier,
		t.ProductType, t.StepType, t.CreatedAt, t.UpdatedAt).Scan(&t.Seq)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTask returns one task by id.
func (r *Repository) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTaskRow(r.pool.QueryRow(ctx, query, id))
}

// UpdateTask persists a task's mutable fields.
func (r *Repository) UpdateTask(ctx context.Context, t *Task) error {
	query := `
		UPDATE tasks SET parent_task_id = $2, line_item_type_id = $3, bundle_id = $4,
			assignee = $5, name = $6, description = $7, units = $8, rate = $9,
			est_qty = $10, sort_order = $11, mapping_strategy = $12,
			bundle_identifier = $13, product_type = $14, step_type = $15,
			updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, t.ID, t.ParentTaskID, t.LineItemTypeID, t.BundleID,
		t.Assignee, t.Name, t.Description, t.Units, t.Rate, t.EstQty, t.SortOrder,
		t.MappingStrategy, t.BundleIdentifier, t.ProductType, t.StepType)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(taskNotFoundMsg)
	}
	return nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(taskNotFoundMsg)
	}
	return nil
}

// TasksByWorksheet returns all tasks on a worksheet in container order, with
// bundled tasks last by bundle then within-bundle order.
func (r *Repository) TasksByWorksheet(ctx context.Context, worksheetID uuid.UUID) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE worksheet_id = $1
		ORDER BY bundle_id NULLS FIRST, sort_order, seq`
	return r.queryTasks(ctx, query, worksheetID)
}

func (r *Repository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.WorksheetID, &t.WorkOrderID, &t.ParentTaskID, &t.TemplateID,
			&t.LineItemTypeID, &t.BundleID, &t.Assignee, &t.Name, &t.Description, &t.Units,
			&t.Rate, &t.EstQty, &t.SortOrder, &t.Seq, &t.MappingStrategy, &t.BundleIdentifier,
			&t.ProductType, &t.StepType, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ── Bundles ───────────────────────────────────────────────────────────────────

const bundleColumns = `id, worksheet_id, work_order_id, name, description,
		line_item_type_id, sort_order, source_template_bundle_id, created_at`

func scanBundle(row pgx.Row) (*TaskBundle, error) {
	var b TaskBundle
	err := row.Scan(&b.ID, &b.WorksheetID, &b.WorkOrderID, &b.Name, &b.Description,
		&b.LineItemTypeID, &b.SortOrder, &b.SourceTemplateBundleID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(bundleNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan bundle: %w", err)
	}
	return &b, nil
}

// GetBundle returns one bundle by id.
func (r *Repository) GetBundle(ctx context.Context, id uuid.UUID) (*TaskBundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM task_bundles WHERE id = $1`
	return scanBundle(r.pool.QueryRow(ctx, query, id))
}

// BundleByName looks up a bundle by name within one worksheet. Names are
// unique only within their container.
func (r *Repository) BundleByName(ctx context.Context, worksheetID uuid.UUID, name string) (*TaskBundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM task_bundles
		WHERE worksheet_id = $1 AND name = $2`
	return scanBundle(r.pool.QueryRow(ctx, query, worksheetID, name))
}

// BundlesByWorksheet returns all bundles on a worksheet in container order.
func (r *Repository) BundlesByWorksheet(ctx context.Context, worksheetID uuid.UUID) ([]TaskBundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM task_bundles
		WHERE worksheet_id = $1 ORDER BY sort_order, created_at`
	rows, err := r.pool.Query(ctx, query, worksheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	defer rows.Close()

	var out []TaskBundle
	for rows.Next() {
		var b TaskBundle
		if err := rows.Scan(&b.ID, &b.WorksheetID, &b.WorkOrderID, &b.Name, &b.Description,
			&b.LineItemTypeID, &b.SortOrder, &b.SourceTemplateBundleID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bundle: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ── Ordering snapshot and plan application ────────────────────────────────────

// Snapshot loads the ordering view of a worksheet: every task and bundle with
// just the fields the ordering rules need.
func (r *Repository) Snapshot(ctx context.Context, worksheetID uuid.UUID) (bundling.Container, error) {
	var c bundling.Container

	rows, err := r.pool.Query(ctx,
		`SELECT id, sort_order, bundle_id, seq FROM tasks WHERE worksheet_id = $1`, worksheetID)
	if err != nil {
		return c, fmt.Errorf("failed to snapshot tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item bundling.Item
		var seq int64
		if err := rows.Scan(&item.ID, &item.SortOrder, &item.BundleID, &seq); err != nil {
			return c, fmt.Errorf("failed to scan task snapshot: %w", err)
		}
		item.Seq = int(seq)
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return c, err
	}

	brows, err := r.pool.Query(ctx,
		`SELECT id, sort_order FROM task_bundles WHERE worksheet_id = $1`, worksheetID)
	if err != nil {
		return c, fmt.Errorf("failed to snapshot bundles: %w", err)
	}
	defer brows.Close()
	for brows.Next() {
		var b bundling.Bundle
		if err := brows.Scan(&b.ID, &b.SortOrder); err != nil {
			return c, fmt.Errorf("failed to scan bundle snapshot: %w", err)
		}
		c.Bundles = append(c.Bundles, b)
	}
	return c, brows.Err()
}

// ApplyGroup applies a grouping plan in one transaction: the bundle row is
// inserted when the plan calls for it, and each selected task is moved into
// the bundle at its assigned within-bundle order.
func (r *Repository) ApplyGroup(ctx context.Context, worksheetID uuid.UUID, bundle *TaskBundle, plan bundling.GroupPlan) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if plan.CreateBundle {
		_, err = tx.Exec(ctx, `
			INSERT INTO task_bundles (`+bundleColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			plan.BundleID, worksheetID, nil, bundle.Name, bundle.Description,
			bundle.LineItemTypeID, plan.BundleSort, bundle.SourceTemplateBundleID, time.Now())
		if err != nil {
			return fmt.Errorf("failed to create bundle: %w", err)
		}
	}

	for _, a := range plan.Assignments {
		tag, err := tx.Exec(ctx, `
			UPDATE tasks SET bundle_id = $2, mapping_strategy = $3, sort_order = $4,
				updated_at = now()
			WHERE id = $1 AND worksheet_id = $5`,
			a.ItemID, plan.BundleID, domain.MappingBundle, a.SortOrder, worksheetID)
		if err != nil {
			return fmt.Errorf("failed to assign task to bundle: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(taskNotFoundMsg)
		}
	}

	return tx.Commit(ctx)
}

// ApplyRemoval applies a removal plan in one transaction: container rows are
// bumped to make room, the removed task becomes direct, the survivor (if any)
// takes the bundle's slot, and the bundle is deleted when dissolved.
func (r *Repository) ApplyRemoval(ctx context.Context, worksheetID, bundleID, taskID uuid.UUID, plan bundling.RemovalPlan) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.applyRemovalTx(ctx, tx, worksheetID, bundleID, taskID, plan); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) applyRemovalTx(ctx context.Context, tx pgx.Tx, worksheetID, bundleID, taskID uuid.UUID, plan bundling.RemovalPlan) error {
	if plan.BumpFrom > 0 {
		_, err := tx.Exec(ctx, `
			UPDATE tasks SET sort_order = sort_order + 1, updated_at = now()
			WHERE worksheet_id = $1 AND bundle_id IS NULL AND sort_order >= $2`,
			worksheetID, plan.BumpFrom)
		if err != nil {
			return fmt.Errorf("failed to bump container tasks: %w", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE task_bundles SET sort_order = sort_order + 1
			WHERE worksheet_id = $1 AND sort_order >= $2 AND id <> $3`,
			worksheetID, plan.BumpFrom, bundleID)
		if err != nil {
			return fmt.Errorf("failed to bump container bundles: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE tasks SET bundle_id = NULL, mapping_strategy = $3, sort_order = $4,
				updated_at = now()
			WHERE id = $1 AND worksheet_id = $2`,
			taskID, worksheetID, domain.MappingDirect, plan.RemovedSort)
		if err != nil {
			return fmt.Errorf("failed to unbundle task: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(taskNotFoundMsg)
		}
	}

	if plan.Survivor != nil {
		_, err := tx.Exec(ctx, `
			UPDATE tasks SET bundle_id = NULL, mapping_strategy = $3, sort_order = $4,
				updated_at = now()
			WHERE id = $1 AND worksheet_id = $2`,
			*plan.Survivor, worksheetID, domain.MappingDirect, plan.SurvivorSort)
		if err != nil {
			return fmt.Errorf("failed to dissolve bundle survivor: %w", err)
		}
	}

	if plan.DeleteBundle {
		if _, err := tx.Exec(ctx, `DELETE FROM task_bundles WHERE id = $1`, bundleID); err != nil {
			return fmt.Errorf("failed to delete bundle: %w", err)
		}
	}
	return nil
}

// DeleteTaskWithDissolve deletes a bundled task and applies the bundle
// dissolve rules in the same transaction. The plan's bump is expected to be
// zeroed since the deleted task never lands back in the container.
func (r *Repository) DeleteTaskWithDissolve(ctx context.Context, worksheetID, bundleID, taskID uuid.UUID, plan bundling.RemovalPlan) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND worksheet_id = $2`, taskID, worksheetID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(taskNotFoundMsg)
	}

	if err := r.applyRemovalTx(ctx, tx, worksheetID, bundleID, taskID, plan); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ApplyMove applies a move plan in one transaction: the source side runs its
// dissolve rules, then the task joins the destination bundle.
func (r *Repository) ApplyMove(ctx context.Context, worksheetID, sourceBundleID, taskID uuid.UUID, plan bundling.MovePlan) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.applyRemovalTx(ctx, tx, worksheetID, sourceBundleID, taskID, plan.Removal); err != nil {
		return err
	}

	for _, a := range plan.Group.Assignments {
		_, err := tx.Exec(ctx, `
			UPDATE tasks SET bundle_id = $2, mapping_strategy = $3, sort_order = $4,
				updated_at = now()
			WHERE id = $1 AND worksheet_id = $5`,
			a.ItemID, plan.Group.BundleID, domain.MappingBundle, a.SortOrder, worksheetID)
		if err != nil {
			return fmt.Errorf("failed to move task into bundle: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// BulkInsert persists a prepared set of bundles and tasks in one
// transaction. Callers assign ids and sort orders; rows land exactly as
// given. Used by template-driven task generation.
func (r *Repository) BulkInsert(ctx context.Context, bundles []TaskBundle, tasks []Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range bundles {
		_, err = tx.Exec(ctx, `
			INSERT INTO task_bundles (`+bundleColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			b.ID, b.WorksheetID, b.WorkOrderID, b.Name, b.Description,
			b.LineItemTypeID, b.SortOrder, b.SourceTemplateBundleID, b.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert bundle: %w", err)
		}
	}
	for _, t := range tasks {
		_, err = tx.Exec(ctx, `
			INSERT INTO tasks (id, worksheet_id, work_order_id, parent_task_id, template_id,
				line_item_type_id, bundle_id, assignee, name, description, units, rate,
				est_qty, sort_order, mapping_strategy, bundle_identifier, product_type,
				step_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
				$16, $17, $18, $19, $20)`,
			t.ID, t.WorksheetID, t.WorkOrderID, t.ParentTaskID, t.TemplateID,
			t.LineItemTypeID, t.BundleID, t.Assignee, t.Name, t.Description, t.Units,
			t.Rate, t.EstQty, t.SortOrder, t.MappingStrategy, t.BundleIdentifier,
			t.ProductType, t.StepType, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ── Versioning ────────────────────────────────────────────────────────────────

// CreateVersion supersedes the given worksheet and deep-copies it: bundles
// first with fresh ids, then tasks preserving mapping strategy, orders, and
// the task hierarchy, all in one transaction. The new worksheet starts in
// draft with no estimate.
func (r *Repository) CreateVersion(ctx context.Context, old *Worksheet, tasks []Task, bundles []TaskBundle) (*Worksheet, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	next := &Worksheet{
		ID:         uuid.New(),
		JobID:      old.JobID,
		TemplateID: old.TemplateID,
		Status:     domain.StatusDraft,
		Version:    old.Version + 1,
		ParentID:   &old.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO est_worksheets (`+worksheetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		next.ID, next.JobID, next.TemplateID, nil, next.Status, next.Version,
		next.ParentID, next.CreatedAt, next.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create worksheet version: %w", err)
	}

	bundleIDs := make(map[uuid.UUID]uuid.UUID, len(bundles))
	for _, b := range bundles {
		newID := uuid.New()
		bundleIDs[b.ID] = newID
		_, err = tx.Exec(ctx, `
			INSERT INTO task_bundles (`+bundleColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			newID, next.ID, nil, b.Name, b.Description, b.LineItemTypeID,
			b.SortOrder, b.SourceTemplateBundleID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to copy bundle: %w", err)
		}
	}

	taskIDs := make(map[uuid.UUID]uuid.UUID, len(tasks))
	for _, t := range tasks {
		taskIDs[t.ID] = uuid.New()
	}
	for _, t := range tasks {
		var bundleID *uuid.UUID
		if t.BundleID != nil {
			id, ok := bundleIDs[*t.BundleID]
			if !ok {
				return nil, apperr.Validation("task references a bundle outside its worksheet")
			}
			bundleID = &id
		}
		var parentID *uuid.UUID
		if t.ParentTaskID != nil {
			if id, ok := taskIDs[*t.ParentTaskID]; ok {
				parentID = &id
			}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO tasks (id, worksheet_id, work_order_id, parent_task_id, template_id,
				line_item_type_id, bundle_id, assignee, name, description, units, rate,
				est_qty, sort_order, mapping_strategy, bundle_identifier, product_type,
				step_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
				$16, $17, $18, $19, $20)`,
			taskIDs[t.ID], next.ID, nil, parentID, t.TemplateID, t.LineItemTypeID,
			bundleID, t.Assignee, t.Name, t.Description, t.Units, t.Rate, t.EstQty,
			t.SortOrder, t.MappingStrategy, t.BundleIdentifier, t.ProductType,
			t.StepType, now, now)
		if err != nil {
			return nil, fmt.Errorf("failed to copy task: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE est_worksheets SET status = $2, updated_at = now() WHERE id = $1`,
		old.ID, domain.StatusSuperseded)
	if err != nil {
		return nil, fmt.Errorf("failed to supersede worksheet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit worksheet version: %w", err)
	}
	return next, nil
}
