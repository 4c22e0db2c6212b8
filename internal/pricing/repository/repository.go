package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// LineItemType is the tax category for billing line items.
type LineItemType struct {
	ID        uuid.UUID `db:"id"`
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	Taxable   bool      `db:"taxable"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BundlingRule is a declarative pricing policy keyed by product type.
type BundlingRule struct {
	ID                   uuid.UUID  `db:"id"`
	RuleName             string     `db:"rule_name"`
	ProductType          string     `db:"product_type"`
	WorkOrderTemplateID  *uuid.UUID `db:"work_order_template_id"`
	PricingMethod        string     `db:"pricing_method"`
	DefaultUnits         string     `db:"default_units"`
	CombineInstances     bool       `db:"combine_instances"`
	IncludeMaterials     bool       `db:"include_materials"`
	IncludeLabor         bool       `db:"include_labor"`
	IncludeOverhead      bool       `db:"include_overhead"`
	OutputLineItemTypeID *uuid.UUID `db:"output_line_item_type_id"`
	Priority             int        `db:"priority"`
	IsActive             bool       `db:"is_active"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

const (
	lineItemTypeNotFoundMsg = "line item type not found"
	bundlingRuleNotFoundMsg = "bundling rule not found"
)

const foreignKeyViolation = "23503"

// Repository provides database operations for pricing configuration.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new pricing repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ── Line item types ───────────────────────────────────────────────────────────

const lineItemTypeColumns = `id, code, name, taxable, is_active, created_at, updated_at`

func scanLineItemType(row pgx.Row) (*LineItemType, error) {
	var t LineItemType
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Taxable, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(lineItemTypeNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan line item type: %w", err)
	}
	return &t, nil
}

// CreateLineItemType inserts a new line item type.
func (r *Repository) CreateLineItemType(ctx context.Context, t *LineItemType) error {
	query := `
		INSERT INTO line_item_types (` + lineItemTypeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.pool.Exec(ctx, query, t.ID, t.Code, t.Name, t.Taxable, t.IsActive, t.CreatedAt, t.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("line item type code already exists")
		}
		return fmt.Errorf("failed to insert line item type: %w", err)
	}
	return nil
}

// GetLineItemType retrieves a line item type by ID.
func (r *Repository) GetLineItemType(ctx context.Context, id uuid.UUID) (*LineItemType, error) {
	query := `SELECT ` + lineItemTypeColumns + ` FROM line_item_types WHERE id = $1`
	return scanLineItemType(r.pool.QueryRow(ctx, query, id))
}

// ListLineItemTypes returns all line item types, active first, then by code.
func (r *Repository) ListLineItemTypes(ctx context.Context) ([]LineItemType, error) {
	query := `SELECT ` + lineItemTypeColumns + ` FROM line_item_types ORDER BY is_active DESC, code ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list line item types: %w", err)
	}
	defer rows.Close()

	var items []LineItemType
	for rows.Next() {
		var t LineItemType
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Taxable, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan line item type: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line item types: %w", err)
	}
	return items, nil
}

// UpdateLineItemType updates mutable fields of a line item type.
func (r *Repository) UpdateLineItemType(ctx context.Context, t *LineItemType) error {
	query := `
		UPDATE line_item_types
		SET code = $2, name = $3, taxable = $4, is_active = $5, updated_at = $6
		WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, t.ID, t.Code, t.Name, t.Taxable, t.IsActive, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update line item type: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(lineItemTypeNotFoundMsg)
	}
	return nil
}

// CountLineItemTypeRefs returns how many rows still reference the type.
func (r *Repository) CountLineItemTypeRefs(ctx context.Context, id uuid.UUID) (int, error) {
	var refs int
	query := `
		SELECT
			(SELECT COUNT(*) FROM estimate_line_items WHERE line_item_type_id = $1) +
			(SELECT COUNT(*) FROM tasks WHERE line_item_type_id = $1) +
			(SELECT COUNT(*) FROM task_bundles WHERE line_item_type_id = $1) +
			(SELECT COUNT(*) FROM template_bundles WHERE line_item_type_id = $1) +
			(SELECT COUNT(*) FROM bundling_rules WHERE output_line_item_type_id = $1)`
	if err := r.pool.QueryRow(ctx, query, id).Scan(&refs); err != nil {
		return 0, fmt.Errorf("failed to count line item type references: %w", err)
	}
	return refs, nil
}

// DeleteLineItemType removes a line item type. The schema keeps RESTRICT
// foreign keys on every referencing table, so a concurrent insert between the
// reference count and the delete still surfaces as a conflict.
func (r *Repository) DeleteLineItemType(ctx context.Context, id uuid.UUID) error {
	refs, err := r.CountLineItemTypeRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return apperr.Protected("line item type", refs)
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM line_item_types WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Protected("line item type", 1)
		}
		return fmt.Errorf("failed to delete line item type: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(lineItemTypeNotFoundMsg)
	}
	return nil
}

// DefaultLineItemType walks the fallback chain for the app-wide default type:
// prefer active types with code SVC, then DIR, then any active type.
func (r *Repository) DefaultLineItemType(ctx context.Context) (*LineItemType, error) {
	query := `
		SELECT ` + lineItemTypeColumns + `
		FROM line_item_types
		WHERE is_active
		ORDER BY
			CASE code WHEN 'SVC' THEN 0 WHEN 'DIR' THEN 1 ELSE 2 END,
			code ASC
		LIMIT 1`
	return scanLineItemType(r.pool.QueryRow(ctx, query))
}

// ── Bundling rules ────────────────────────────────────────────────────────────

const bundlingRuleColumns = `id, rule_name, product_type, work_order_template_id, pricing_method,
		default_units, combine_instances, include_materials, include_labor, include_overhead,
		output_line_item_type_id, priority, is_active, created_at, updated_at`

func scanBundlingRule(row pgx.Row) (*BundlingRule, error) {
	var b BundlingRule
	err := row.Scan(
		&b.ID, &b.RuleName, &b.ProductType, &b.WorkOrderTemplateID, &b.PricingMethod,
		&b.DefaultUnits, &b.CombineInstances, &b.IncludeMaterials, &b.IncludeLabor, &b.IncludeOverhead,
		&b.OutputLineItemTypeID, &b.Priority, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(bundlingRuleNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan bundling rule: %w", err)
	}
	return &b, nil
}

// CreateBundlingRule inserts a new bundling rule.
func (r *Repository) CreateBundlingRule(ctx context.Context, b *BundlingRule) error {
	query := `
		INSERT INTO bundling_rules (` + bundlingRuleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := r.pool.Exec(ctx, query,
		b.ID, b.RuleName, b.ProductType, b.WorkOrderTemplateID, b.PricingMethod,
		b.DefaultUnits, b.CombineInstances, b.IncludeMaterials, b.IncludeLabor, b.IncludeOverhead,
		b.OutputLineItemTypeID, b.Priority, b.IsActive, b.CreatedAt, b.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert bundling rule: %w", err)
	}
	return nil
}

// GetBundlingRule retrieves a bundling rule by ID.
func (r *Repository) GetBundlingRule(ctx context.Context, id uuid.UUID) (*BundlingRule, error) {
	query := `SELECT ` + bundlingRuleColumns + ` FROM bundling_rules WHERE id = $1`
	return scanBundlingRule(r.pool.QueryRow(ctx, query, id))
}

// ListBundlingRules returns all rules ordered by product type then priority.
func (r *Repository) ListBundlingRules(ctx context.Context) ([]BundlingRule, error) {
	query := `SELECT ` + bundlingRuleColumns + ` FROM bundling_rules ORDER BY product_type ASC, priority ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundling rules: %w", err)
	}
	defer rows.Close()

	var items []BundlingRule
	for rows.Next() {
		var b BundlingRule
		if err := rows.Scan(
			&b.ID, &b.RuleName, &b.ProductType, &b.WorkOrderTemplateID, &b.PricingMethod,
			&b.DefaultUnits, &b.CombineInstances, &b.IncludeMaterials, &b.IncludeLabor, &b.IncludeOverhead,
			&b.OutputLineItemTypeID, &b.Priority, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bundling rule: %w", err)
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bundling rules: %w", err)
	}
	return items, nil
}

// ActiveRuleForProductType returns the active rule with the lowest priority
// for a product type, or apperr.NotFound when none applies.
func (r *Repository) ActiveRuleForProductType(ctx context.Context, productType string) (*BundlingRule, error) {
	query := `
		SELECT ` + bundlingRuleColumns + `
		FROM bundling_rules
		WHERE product_type = $1 AND is_active
		ORDER BY priority ASC, created_at ASC
		LIMIT 1`
	return scanBundlingRule(r.pool.QueryRow(ctx, query, productType))
}

// UpdateBundlingRule updates mutable fields of a rule.
func (r *Repository) UpdateBundlingRule(ctx context.Context, b *BundlingRule) error {
	query := `
		UPDATE bundling_rules SET
			rule_name = $2, product_type = $3, work_order_template_id = $4, pricing_method = $5,
			default_units = $6, combine_instances = $7, include_materials = $8, include_labor = $9,
			include_overhead = $10, output_line_item_type_id = $11, priority = $12, is_active = $13,
			updated_at = $14
		WHERE id = $1`
	result, err := r.pool.Exec(ctx, query,
		b.ID, b.RuleName, b.ProductType, b.WorkOrderTemplateID, b.PricingMethod,
		b.DefaultUnits, b.CombineInstances, b.IncludeMaterials, b.IncludeLabor, b.IncludeOverhead,
		b.OutputLineItemTypeID, b.Priority, b.IsActive, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update bundling rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(bundlingRuleNotFoundMsg)
	}
	return nil
}

// DeleteBundlingRule removes a rule.
func (r *Repository) DeleteBundlingRule(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM bundling_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bundling rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(bundlingRuleNotFoundMsg)
	}
	return nil
}

// TemplateBasePrice returns a work order template's base price, which may be
// null. Used to validate template_base rules.
func (r *Repository) TemplateBasePrice(ctx context.Context, templateID uuid.UUID) (*decimal.Decimal, error) {
	var basePrice *decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT base_price FROM work_order_templates WHERE id = $1`, templateID).Scan(&basePrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("work order template not found")
		}
		return nil, fmt.Errorf("failed to get template base price: %w", err)
	}
	return basePrice, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
