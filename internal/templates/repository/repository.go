package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops_backend/internal/bundling"
	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// WorkOrderTemplate is a reusable definition of a piece of work, optionally
// carrying a flat base price for template-base bundle pricing.
type WorkOrderTemplate struct {
	ID          uuid.UUID        `db:"id"`
	Title       string           `db:"title"`
	Description *string          `db:"description"`
	ProductType *string          `db:"product_type"`
	BasePrice   *decimal.Decimal `db:"base_price"`
	IsActive    bool             `db:"is_active"`
	CreatedAt   time.Time        `db:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at"`
}

// TaskTemplate is a reusable task definition.
type TaskTemplate struct {
	ID             uuid.UUID       `db:"id"`
	Name           string          `db:"name"`
	Description    *string         `db:"description"`
	Units          string          `db:"units"`
	DefaultRate    decimal.Decimal `db:"default_rate"`
	DefaultQty     decimal.Decimal `db:"default_qty"`
	LineItemTypeID *uuid.UUID      `db:"line_item_type_id"`
	ProductType    *string         `db:"product_type"`
	StepType       *string         `db:"step_type"`
	IsActive       bool            `db:"is_active"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// Association ties a task template into a work order template, with the
// per-template bundling configuration.
type Association struct {
	ID               uuid.UUID  `db:"id"`
	TemplateID       uuid.UUID  `db:"template_id"`
	TaskTemplateID   uuid.UUID  `db:"task_template_id"`
	BundleID         *uuid.UUID `db:"bundle_id"`
	SortOrder        int        `db:"sort_order"`
	Seq              int64      `db:"seq"`
	MappingStrategy  string     `db:"mapping_strategy"`
	BundleIdentifier *string    `db:"bundle_identifier"`
	CreatedAt        time.Time  `db:"created_at"`
}

// TemplateBundle is the template-time analogue of a task bundle, scoped to
// one work order template.
type TemplateBundle struct {
	ID             uuid.UUID `db:"id"`
	TemplateID     uuid.UUID `db:"template_id"`
	Name           string    `db:"name"`
	Description    *string   `db:"description"`
	LineItemTypeID uuid.UUID `db:"line_item_type_id"`
	SortOrder      int       `db:"sort_order"`
	CreatedAt      time.Time `db:"created_at"`
}

const (
	templateNotFoundMsg     = "work order template not found"
	taskTemplateNotFoundMsg = "task template not found"
	associationNotFoundMsg  = "template task association not found"
	tplBundleNotFoundMsg    = "template bundle not found"
)

const foreignKeyViolation = "23503"

// Repository provides database operations for templates.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new templates repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ── Work order templates ──────────────────────────────────────────────────────

const templateColumns = `id, title, description, product_type, base_price, is_active,
		created_at, updated_at`

func scanTemplate(row pgx.Row) (*WorkOrderTemplate, error) {
	var t WorkOrderTemplate
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.ProductType, &t.BasePrice,
		&t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(templateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan work order template: %w", err)
	}
	return &t, nil
}

// CreateTemplate inserts a new work order template.
func (r *Repository) CreateTemplate(ctx context.Context, t *WorkOrderTemplate) error {
	query := `
		INSERT INTO work_order_templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query, t.ID, t.Title, t.Description, t.ProductType,
		t.BasePrice, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create work order template: %w", err)
	}
	return nil
}

// GetTemplate returns one work order template by id.
func (r *Repository) GetTemplate(ctx context.Context, id uuid.UUID) (*WorkOrderTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM work_order_templates WHERE id = $1`
	return scanTemplate(r.pool.QueryRow(ctx, query, id))
}

// ListTemplates returns all work order templates.
func (r *Repository) ListTemplates(ctx context.Context) ([]WorkOrderTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM work_order_templates ORDER BY title`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list work order templates: %w", err)
	}
	defer rows.Close()

	var out []WorkOrderTemplate
	for rows.Next() {
		var t WorkOrderTemplate
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.ProductType, &t.BasePrice,
			&t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work order template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTemplate persists a work order template.
func (r *Repository) UpdateTemplate(ctx context.Context, t *WorkOrderTemplate) error {
	query := `
		UPDATE work_order_templates SET title = $2, description = $3, product_type = $4,
			base_price = $5, is_active = $6, updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, t.ID, t.Title, t.Description, t.ProductType,
		t.BasePrice, t.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update work order template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(templateNotFoundMsg)
	}
	return nil
}

// DeleteTemplate removes a work order template. Deletion is blocked while
// bundling rules or worksheets reference it.
func (r *Repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	refs, err := r.countTemplateRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return apperr.Protected("work order template", refs)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM work_order_templates WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Protected("work order template", 1)
		}
		return fmt.Errorf("failed to delete work order template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(templateNotFoundMsg)
	}
	return nil
}

func (r *Repository) countTemplateRefs(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		SELECT (SELECT count(*) FROM bundling_rules WHERE work_order_template_id = $1)
		     + (SELECT count(*) FROM est_worksheets WHERE template_id = $1)`
	var refs int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&refs); err != nil {
		return 0, fmt.Errorf("failed to count template references: %w", err)
	}
	return refs, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// ── Task templates ────────────────────────────────────────────────────────────

const taskTemplateColumns = `id, name, description, units, default_rate, default_qty,
		line_item_type_id, product_type, step_type, is_active, created_at, updated_at`

func scanTaskTemplate(row pgx.Row) (*TaskTemplate, error) {
	var t TaskTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Units, &t.DefaultRate, &t.DefaultQty,
		&t.LineItemTypeID, &t.ProductType, &t.StepType, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(taskTemplateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan task template: %w", err)
	}
	return &t, nil
}

// CreateTaskTemplate inserts a new task template.
func (r *Repository) CreateTaskTemplate(ctx context.Context, t *TaskTemplate) error {
	query := `
		INSERT INTO task_templates (` + taskTemplateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.pool.Exec(ctx, query, t.ID, t.Name, t.Description, t.Units, t.DefaultRate,
		t.DefaultQty, t.LineItemTypeID, t.ProductType, t.StepType, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task template: %w", err)
	}
	return nil
}

// GetTaskTemplate returns one task template by id.
func (r *Repository) GetTaskTemplate(ctx context.Context, id uuid.UUID) (*TaskTemplate, error) {
	query := `SELECT ` + taskTemplateColumns + ` FROM task_templates WHERE id = $1`
	return scanTaskTemplate(r.pool.QueryRow(ctx, query, id))
}

// ListTaskTemplates returns all task templates.
func (r *Repository) ListTaskTemplates(ctx context.Context) ([]TaskTemplate, error) {
	query := `SELECT ` + taskTemplateColumns + ` FROM task_templates ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list task templates: %w", err)
	}
	defer rows.Close()

	var out []TaskTemplate
	for rows.Next() {
		var t TaskTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Units, &t.DefaultRate, &t.DefaultQty,
			&t.LineItemTypeID, &t.ProductType, &t.StepType, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTaskTemplate persists a task template.
func (r *Repository) UpdateTaskTemplate(ctx context.Context, t *TaskTemplate) error {
	query := `
		UPDATE task_templates SET name = $2, description = $3, units = $4,
			default_rate = $5, default_qty = $6, line_item_type_id = $7,
			product_type = $8, step_type = $9, is_active = $10, updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, t.ID, t.Name, t.Description, t.Units, t.DefaultRate,
		t.DefaultQty, t.LineItemTypeID, t.ProductType, t.StepType, t.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update task template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(taskTemplateNotFoundMsg)
	}
	return nil
}

// DeleteTaskTemplate removes a task template. Deletion is blocked while
// associations or generated tasks reference it.
func (r *Repository) DeleteTaskTemplate(ctx context.Context, id uuid.UUID) error {
	query := `
		SELECT (SELECT count(*) FROM template_task_associations WHERE task_template_id = $1)
		     + (SELECT count(*) FROM tasks WHERE template_id = $1)`
	var refs int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&refs); err != nil {
		return fmt.Errorf("failed to count task template references: %w", err)
	}
	if refs > 0 {
		return apperr.Protected("task template", refs)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM task_templates WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Protected("task template", 1)
		}
		return fmt.Errorf("failed to delete task template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(taskTemplateNotFoundMsg)
	}
	return nil
}

// ── Associations ──────────────────────────────────────────────────────────────

const associationColumns = `id, template_id, task_template_id, bundle_id, sort_order,
		seq, mapping_strategy, bundle_identifier, created_at`

// CreateAssociation inserts a new template task association. The insertion
// sequence is assigned by the database and read back.
func (r *Repository) CreateAssociation(ctx context.Context, a *Association) error {
	query := `
		INSERT INTO template_task_associations (id, template_id, task_template_id,
			bundle_id, sort_order, mapping_strategy, bundle_identifier, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`
	err := r.pool.QueryRow(ctx, query, a.ID, a.TemplateID, a.TaskTemplateID, a.BundleID,
		a.SortOrder, a.MappingStrategy, a.BundleIdentifier, a.CreatedAt).Scan(&a.Seq)
	if err != nil {
		return fmt.Errorf("failed to create association: %w", err)
	}
	return nil
}

// GetAssociation returns one association by id.
func (r *Repository) GetAssociation(ctx context.Context, id uuid.UUID) (*Association, error) {
	query := `SELECT ` + associationColumns + ` FROM template_task_associations WHERE id = $1`
	var a Association
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.TemplateID, &a.TaskTemplateID,
		&a.BundleID, &a.SortOrder, &a.Seq, &a.MappingStrategy, &a.BundleIdentifier, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(associationNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan association: %w", err)
	}
	return &a, nil
}

// AssociationsByTemplate returns a template's associations in container
// order, bundled rows last by bundle then within-bundle order.
func (r *Repository) AssociationsByTemplate(ctx context.Context, templateID uuid.UUID) ([]Association, error) {
	query := `SELECT ` + associationColumns + ` FROM template_task_associations
		WHERE template_id = $1
		ORDER BY bundle_id NULLS FIRST, sort_order, seq`
	rows, err := r.pool.Query(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list associations: %w", err)
	}
	defer rows.Close()

	var out []Association
	for rows.Next() {
		var a Association
		if err := rows.Scan(&a.ID, &a.TemplateID, &a.TaskTemplateID, &a.BundleID, &a.SortOrder,
			&a.Seq, &a.MappingStrategy, &a.BundleIdentifier, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAssociation removes an association.
func (r *Repository) DeleteAssociation(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM template_task_associations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete association: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(associationNotFoundMsg)
	}
	return nil
}

// ── Template bundles ──────────────────────────────────────────────────────────

const tplBundleColumns = `id, template_id, name, description, line_item_type_id,
		sort_order, created_at`

func scanTplBundle(row pgx.Row) (*TemplateBundle, error) {
	var b TemplateBundle
	err := row.Scan(&b.ID, &b.TemplateID, &b.Name, &b.Description, &b.LineItemTypeID,
		&b.SortOrder, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(tplBundleNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan template bundle: %w", err)
	}
	return &b, nil
}

// GetTemplateBundle returns one template bundle by id.
func (r *Repository) GetTemplateBundle(ctx context.Context, id uuid.UUID) (*TemplateBundle, error) {
	query := `SELECT ` + tplBundleColumns + ` FROM template_bundles WHERE id = $1`
	return scanTplBundle(r.pool.QueryRow(ctx, query, id))
}

// TemplateBundleByName looks up a bundle by name within one template.
func (r *Repository) TemplateBundleByName(ctx context.Context, templateID uuid.UUID, name string) (*TemplateBundle, error) {
	query := `SELECT ` + tplBundleColumns + ` FROM template_bundles
		WHERE template_id = $1 AND name = $2`
	return scanTplBundle(r.pool.QueryRow(ctx, query, templateID, name))
}

// TemplateBundlesByTemplate returns a template's bundles in container order.
func (r *Repository) TemplateBundlesByTemplate(ctx context.Context, templateID uuid.UUID) ([]TemplateBundle, error) {
	query := `SELECT ` + tplBundleColumns + ` FROM template_bundles
		WHERE template_id = $1 ORDER BY sort_order, created_at`
	rows, err := r.pool.Query(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list template bundles: %w", err)
	}
	defer rows.Close()

	var out []TemplateBundle
	for rows.Next() {
		var b TemplateBundle
		if err := rows.Scan(&b.ID, &b.TemplateID, &b.Name, &b.Description, &b.LineItemTypeID,
			&b.SortOrder, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template bundle: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ── Ordering snapshot and plan application ────────────────────────────────────

// Snapshot loads the ordering view of a template: every association and
// bundle with just the fields the ordering rules need.
func (r *Repository) Snapshot(ctx context.Context, templateID uuid.UUID) (bundling.Container, error) {
	var c bundling.Container

	rows, err := r.pool.Query(ctx,
		`SELECT id, sort_order, bundle_id, seq FROM template_task_associations WHERE template_id = $1`,
		templateID)
	if err != nil {
		return c, fmt.Errorf("failed to snapshot associations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item bundling.Item
		var seq int64
		if err := rows.Scan(&item.ID, &item.SortOrder, &item.BundleID, &seq); err != nil {
			return c, fmt.Errorf("failed to scan association snapshot: %w", err)
		}
		item.Seq = int(seq)
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return c, err
	}

	brows, err := r.pool.Query(ctx,
		`SELECT id, sort_order FROM template_bundles WHERE template_id = $1`, templateID)
	if err != nil {
		return c, fmt.Errorf("failed to snapshot template bundles: %w", err)
	}
	defer brows.Close()
	for brows.Next() {
		var b bundling.Bundle
		if err := brows.Scan(&b.ID, &b.SortOrder); err != nil {
			return c, fmt.Errorf("failed to scan template bundle snapshot: %w", err)
		}
		c.Bundles = append(c.Bundles, b)
	}
	return c, brows.Err()
}

// ApplyGroup applies a grouping plan over template associations in one
// transaction.
func (r *Repository) ApplyGroup(ctx context.Context, templateID uuid.UUID, bundle *TemplateBundle, plan bundling.GroupPlan) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if plan.CreateBundle {
		_, err = tx.Exec(ctx, `
			INSERT INTO template_bundles (`+tplBundleColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			plan.BundleID, templateID, bundle.Name, bundle.Description,
			bundle.LineItemTypeID, plan.BundleSort, time.Now())
		if err != nil {
			return fmt.Errorf("failed to create template bundle: %w", err)
		}
	}

	for _, a := range plan.Assignments {
		tag, err := tx.Exec(ctx, `
			UPDATE template_task_associations SET bundle_id = $2,
				mapping_strategy = 'bundle', sort_order = $3
			WHERE id = $1 AND template_id = $4`,
			a.ItemID, plan.BundleID, a.SortOrder, templateID)
		if err != nil {
			return fmt.Errorf("failed to assign association to bundle: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(associationNotFoundMsg)
		}
	}
	return tx.Commit(ctx)
}

// ApplyRemoval applies a removal plan over template associations in one
// transaction, including the auto-dissolve rules.
func (r *Repository) ApplyRemoval(ctx context.Context, templateID, bundleID, associationID uuid.UUID, plan bundling.RemovalPlan) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if plan.BumpFrom > 0 {
		_, err = tx.Exec(ctx, `
			UPDATE template_task_associations SET sort_order = sort_order + 1
			WHERE template_id = $1 AND bundle_id IS NULL AND sort_order >= $2`,
			templateID, plan.BumpFrom)
		if err != nil {
			return fmt.Errorf("failed to bump associations: %w", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE template_bundles SET sort_order = sort_order + 1
			WHERE template_id = $1 AND sort_order >= $2 AND id <> $3`,
			templateID, plan.BumpFrom, bundleID)
		if err != nil {
			return fmt.Errorf("failed to bump template bundles: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE template_task_associations SET bundle_id = NULL,
				mapping_strategy = 'direct', sort_order = $3
			WHERE id = $1 AND template_id = $2`,
			associationID, templateID, plan.RemovedSort)
		if err != nil {
			return fmt.Errorf("failed to unbundle association: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(associationNotFoundMsg)
		}
	}

	if plan.Survivor != nil {
		_, err = tx.Exec(ctx, `
			UPDATE template_task_associations SET bundle_id = NULL,
				mapping_strategy = 'direct', sort_order = $3
			WHERE id = $1 AND template_id = $2`,
			*plan.Survivor, templateID, plan.SurvivorSort)
		if err != nil {
			return fmt.Errorf("failed to dissolve bundle survivor: %w", err)
		}
	}

	if plan.DeleteBundle {
		if _, err := tx.Exec(ctx, `DELETE FROM template_bundles WHERE id = $1`, bundleID); err != nil {
			return fmt.Errorf("failed to delete template bundle: %w", err)
		}
	}
	return tx.Commit(ctx)
}
