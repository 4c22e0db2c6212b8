// Package repository provides database access for the directory: businesses,
// contacts, and the purchasing document headers the deletion workflow
// operates on.
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

// Business is a customer organization.
type Business struct {
	ID               uuid.UUID  `db:"id"`
	Name             string     `db:"name"`
	DefaultContactID *uuid.UUID `db:"default_contact_id"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// Contact is a person, optionally attached to a business. TaxMultiplier
// scales the effective tax rate on this contact's documents.
type Contact struct {
	ID            uuid.UUID        `db:"id"`
	BusinessID    *uuid.UUID       `db:"business_id"`
	Name          string           `db:"name"`
	Email         *string          `db:"email"`
	Phone         *string          `db:"phone"`
	TaxMultiplier *decimal.Decimal `db:"tax_multiplier"`
	CreatedAt     time.Time        `db:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at"`
}

// Document is a minimal purchasing document header (purchase order or bill).
type Document struct {
	ID        uuid.UUID  `db:"id"`
	ContactID *uuid.UUID `db:"contact_id"`
	Number    string     `db:"number"`
	Status    string     `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// JobRef is the slice of a job the deletion planner needs.
type JobRef struct {
	ID        uuid.UUID
	JobNumber string
	Status    string
	ContactID uuid.UUID
}

const (
	businessNotFoundMsg = "business not found"
	contactNotFoundMsg  = "contact not found"
	documentNotFoundMsg = "document not found"
)

// Document kinds, doubling as table names.
const (
	DocPurchaseOrder = "purchase_order"
	DocBill          = "bill"
)

func docTable(kind string) (string, error) {
	switch kind {
	case DocPurchaseOrder:
		return "purchase_orders", nil
	case DocBill:
		return "bills", nil
	}
	return "", apperr.Validationf("unknown document kind %q", kind)
}

// Repository provides database operations for the directory.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new directory repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ── Businesses ────────────────────────────────────────────────────────────────

const businessColumns = `id, name, default_contact_id, created_at, updated_at`

func scanBusiness(row pgx.Row) (*Business, error) {
	var b Business
	err := row.Scan(&b.ID, &b.Name, &b.DefaultContactID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(businessNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan business: %w", err)
	}
	return &b, nil
}

// CreateBusiness inserts a new business.
func (r *Repository) CreateBusiness(ctx context.Context, b *Business) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO businesses (id, name, default_contact_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.Name, b.DefaultContactID, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}
	return nil
}

// GetBusiness returns one business by ID.
func (r *Repository) GetBusiness(ctx context.Context, id uuid.UUID) (*Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`
	return scanBusiness(r.pool.QueryRow(ctx, query, id))
}

// ListBusinesses returns all businesses ordered by name.
func (r *Repository) ListBusinesses(ctx context.Context) ([]Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer rows.Close()

	var out []Business
	for rows.Next() {
		var b Business
		if err := rows.Scan(&b.ID, &b.Name, &b.DefaultContactID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBusiness persists business changes.
func (r *Repository) UpdateBusiness(ctx context.Context, b *Business) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE businesses SET name = $2, default_contact_id = $3, updated_at = now()
		WHERE id = $1`,
		b.ID, b.Name, b.DefaultContactID)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(businessNotFoundMsg)
	}
	return nil
}

// ── Contacts ──────────────────────────────────────────────────────────────────

const contactColumns = `id, business_id, name, email, phone, tax_multiplier,
		created_at, updated_at`

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Email, &c.Phone, &c.TaxMultiplier,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(contactNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan contact: %w", err)
	}
	return &c, nil
}

// CreateContact inserts a new contact.
func (r *Repository) CreateContact(ctx context.Context, c *Contact) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contacts (id, business_id, name, email, phone, tax_multiplier,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.BusinessID, c.Name, c.Email, c.Phone, c.TaxMultiplier,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// GetContact returns one contact by ID.
func (r *Repository) GetContact(ctx context.Context, id uuid.UUID) (*Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	return scanContact(r.pool.QueryRow(ctx, query, id))
}

// ContactsByBusiness returns a business's contacts ordered by name.
func (r *Repository) ContactsByBusiness(ctx context.Context, businessID uuid.UUID) ([]Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE business_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		err := rows.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Email, &c.Phone,
			&c.TaxMultiplier, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateContact persists contact changes.
func (r *Repository) UpdateContact(ctx context.Context, c *Contact) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contacts SET business_id = $2, name = $3, email = $4, phone = $5,
			tax_multiplier = $6, updated_at = now()
		WHERE id = $1`,
		c.ID, c.BusinessID, c.Name, c.Email, c.Phone, c.TaxMultiplier)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMsg)
	}
	return nil
}

// DeleteContact removes a contact. Jobs referencing the contact block the
// delete.
func (r *Repository) DeleteContact(ctx context.Context, id uuid.UUID) error {
	var refs int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM jobs WHERE contact_id = $1`, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to count contact references: %w", err)
	}
	if refs > 0 {
		return apperr.Protected("contact", refs)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMsg)
	}
	return nil
}

// ── Purchasing documents ──────────────────────────────────────────────────────

// CreateDocument inserts a purchase order or bill header.
func (r *Repository) CreateDocument(ctx context.Context, kind string, d *Document) error {
	table, err := docTable(kind)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO `+table+` (id, contact_id, number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.ContactID, d.Number, d.Status, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", kind, err)
	}
	return nil
}

// GetDocument returns one purchase order or bill header.
func (r *Repository) GetDocument(ctx context.Context, kind string, id uuid.UUID) (*Document, error) {
	table, err := docTable(kind)
	if err != nil {
		return nil, err
	}
	var d Document
	err = r.pool.QueryRow(ctx, `
		SELECT id, contact_id, number, status, created_at, updated_at
		FROM `+table+` WHERE id = $1`, id).
		Scan(&d.ID, &d.ContactID, &d.Number, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(documentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
	}
	return &d, nil
}

// DeleteDocument removes a purchase order or bill header.
func (r *Repository) DeleteDocument(ctx context.Context, kind string, id uuid.UUID) error {
	table, err := docTable(kind)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(documentNotFoundMsg)
	}
	return nil
}

// DocumentsByContacts returns the purchase orders or bills referencing any of
// the given contacts.
func (r *Repository) DocumentsByContacts(ctx context.Context, kind string, contactIDs []uuid.UUID) ([]Document, error) {
	table, err := docTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, contact_id, number, status, created_at, updated_at
		FROM `+table+` WHERE contact_id = ANY($1) ORDER BY number`, contactIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", kind, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ContactID, &d.Number, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// JobsByContacts returns the jobs owned by any of the given contacts.
func (r *Repository) JobsByContacts(ctx context.Context, contactIDs []uuid.UUID) ([]JobRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, job_number, status, contact_id FROM jobs
		WHERE contact_id = ANY($1) ORDER BY job_number`, contactIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact jobs: %w", err)
	}
	defer rows.Close()

	var out []JobRef
	for rows.Next() {
		var j JobRef
		if err := rows.Scan(&j.ID, &j.JobNumber, &j.Status, &j.ContactID); err != nil {
			return nil, fmt.Errorf("failed to scan job reference: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// ── Deletion execution ────────────────────────────────────────────────────────

// JobReassignment moves one job to a surviving contact.
type JobReassignment struct {
	JobID     uuid.UUID
	ContactID uuid.UUID
}

// ContactReassignment moves one contact to another business.
type ContactReassignment struct {
	ContactID  uuid.UUID
	BusinessID uuid.UUID
}

// Execution is a fully validated business deletion, resolved to concrete
// writes.
type Execution struct {
	BusinessID       uuid.UUID
	DeletePOs        []uuid.UUID
	DeleteBills      []uuid.UUID
	UnlinkPOs        []uuid.UUID
	UnlinkBills      []uuid.UUID
	DeleteJobs       []uuid.UUID
	ReassignJobs     []JobReassignment
	DeleteContacts   []uuid.UUID
	ReassignContacts []ContactReassignment
	UnlinkContacts   []uuid.UUID
}

// ExecuteDeletion applies a validated deletion in one transaction, in strict
// dependency order: purchasing documents, then jobs, then any remaining
// document references of deleted contacts, then the contacts themselves, then
// the business, and finally the contact rows marked for deletion.
func (r *Repository) ExecuteDeletion(ctx context.Context, ex Execution) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(ex.DeletePOs) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id = ANY($1)`, ex.DeletePOs); err != nil {
			return fmt.Errorf("failed to delete purchase orders: %w", err)
		}
	}
	if len(ex.DeleteBills) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM bills WHERE id = ANY($1)`, ex.DeleteBills); err != nil {
			return fmt.Errorf("failed to delete bills: %w", err)
		}
	}

	if len(ex.DeleteJobs) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = ANY($1)`, ex.DeleteJobs); err != nil {
			return fmt.Errorf("failed to delete jobs: %w", err)
		}
	}
	for _, ra := range ex.ReassignJobs {
		if _, err := tx.Exec(ctx, `UPDATE jobs SET contact_id = $2, updated_at = now() WHERE id = $1`,
			ra.JobID, ra.ContactID); err != nil {
			return fmt.Errorf("failed to reassign job: %w", err)
		}
	}

	// Explicit unlinks plus a sweep over every remaining reference to a
	// contact that is about to go away, so the final deletes cannot trip a
	// foreign key.
	if len(ex.UnlinkPOs) > 0 {
		if _, err := tx.Exec(ctx, `UPDATE purchase_orders SET contact_id = NULL, updated_at = now() WHERE id = ANY($1)`, ex.UnlinkPOs); err != nil {
			return fmt.Errorf("failed to unlink purchase orders: %w", err)
		}
	}
	if len(ex.UnlinkBills) > 0 {
		if _, err := tx.Exec(ctx, `UPDATE bills SET contact_id = NULL, updated_at = now() WHERE id = ANY($1)`, ex.UnlinkBills); err != nil {
			return fmt.Errorf("failed to unlink bills: %w", err)
		}
	}
	if len(ex.DeleteContacts) > 0 {
		if _, err := tx.Exec(ctx, `UPDATE purchase_orders SET contact_id = NULL, updated_at = now() WHERE contact_id = ANY($1)`, ex.DeleteContacts); err != nil {
			return fmt.Errorf("failed to clear purchase order contact references: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE bills SET contact_id = NULL, updated_at = now() WHERE contact_id = ANY($1)`, ex.DeleteContacts); err != nil {
			return fmt.Errorf("failed to clear bill contact references: %w", err)
		}
	}

	for _, ra := range ex.ReassignContacts {
		if _, err := tx.Exec(ctx, `UPDATE contacts SET business_id = $2, updated_at = now() WHERE id = $1`,
			ra.ContactID, ra.BusinessID); err != nil {
			return fmt.Errorf("failed to reassign contact: %w", err)
		}
	}
	if len(ex.UnlinkContacts) > 0 {
		if _, err := tx.Exec(ctx, `UPDATE contacts SET business_id = NULL, updated_at = now() WHERE id = ANY($1)`, ex.UnlinkContacts); err != nil {
			return fmt.Errorf("failed to unlink contacts: %w", err)
		}
	}
	if len(ex.DeleteContacts) > 0 {
		// Detach first so the business's default contact FK cannot block the
		// business delete.
		if _, err := tx.Exec(ctx, `UPDATE contacts SET business_id = NULL, updated_at = now() WHERE id = ANY($1)`, ex.DeleteContacts); err != nil {
			return fmt.Errorf("failed to detach deleted contacts: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, ex.BusinessID)
	if err != nil {
		return fmt.Errorf("failed to delete business: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(businessNotFoundMsg)
	}

	if len(ex.DeleteContacts) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM contacts WHERE id = ANY($1)`, ex.DeleteContacts); err != nil {
			return fmt.Errorf("failed to delete contacts: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit business deletion: %w", err)
	}
	return nil
}
