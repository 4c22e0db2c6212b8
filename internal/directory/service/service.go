// Package service provides business logic for the directory: businesses,
// contacts, purchasing document headers, and the business deletion workflow.
package service

import (
	"context"
	"time"

	"fieldops_backend/internal/directory/repository"
	"fieldops_backend/internal/directory/transport"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JobCounter reports how many non-terminal jobs a contact owns.
type JobCounter interface {
	OpenJobCountForContact(ctx context.Context, contactID uuid.UUID) (int, error)
}

// Service provides business logic for the directory.
type Service struct {
	repo *repository.Repository
	jobs JobCounter
	log  *logger.Logger
}

// New creates a new directory service.
func New(repo *repository.Repository, jobs JobCounter, log *logger.Logger) *Service {
	return &Service{repo: repo, jobs: jobs, log: log}
}

// ── Businesses ────────────────────────────────────────────────────────────────

// CreateBusiness creates a new business.
func (s *Service) CreateBusiness(ctx context.Context, req transport.CreateBusinessRequest) (*repository.Business, error) {
	now := time.Now()
	b := repository.Business{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateBusiness(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBusiness returns one business.
func (s *Service) GetBusiness(ctx context.Context, id uuid.UUID) (*repository.Business, error) {
	return s.repo.GetBusiness(ctx, id)
}

// ListBusinesses returns all businesses.
func (s *Service) ListBusinesses(ctx context.Context) ([]repository.Business, error) {
	return s.repo.ListBusinesses(ctx)
}

// Contacts returns a business's contacts.
func (s *Service) Contacts(ctx context.Context, businessID uuid.UUID) ([]repository.Contact, error) {
	return s.repo.ContactsByBusiness(ctx, businessID)
}

// UpdateBusiness applies a partial update. The default contact must resolve
// to a contact attached to this business.
func (s *Service) UpdateBusiness(ctx context.Context, id uuid.UUID, req transport.UpdateBusinessRequest) (*repository.Business, error) {
	b, err := s.repo.GetBusiness(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.DefaultContactID != nil {
		contact, err := s.repo.GetContact(ctx, *req.DefaultContactID)
		if err != nil {
			return nil, err
		}
		if contact.BusinessID == nil || *contact.BusinessID != id {
			return nil, apperr.Validation("default contact must belong to the business")
		}
		b.DefaultContactID = req.DefaultContactID
	}
	if err := s.repo.UpdateBusiness(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ── Contacts ──────────────────────────────────────────────────────────────────

// CreateContact creates a new contact. The first contact attached to a
// business becomes its default.
func (s *Service) CreateContact(ctx context.Context, req transport.CreateContactRequest) (*repository.Contact, error) {
	now := time.Now()
	c := repository.Contact{
		ID:            uuid.New(),
		BusinessID:    req.BusinessID,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		TaxMultiplier: req.TaxMultiplier,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.BusinessID != nil {
		if _, err := s.repo.GetBusiness(ctx, *req.BusinessID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.CreateContact(ctx, &c); err != nil {
		return nil, err
	}
	if req.BusinessID != nil {
		b, err := s.repo.GetBusiness(ctx, *req.BusinessID)
		if err != nil {
			return nil, err
		}
		if b.DefaultContactID == nil {
			b.DefaultContactID = &c.ID
			if err := s.repo.UpdateBusiness(ctx, b); err != nil {
				return nil, err
			}
		}
	}
	return &c, nil
}

// GetContact returns one contact.
func (s *Service) GetContact(ctx context.Context, id uuid.UUID) (*repository.Contact, error) {
	return s.repo.GetContact(ctx, id)
}

// UpdateContact applies a partial update. Moving a contact to a different
// business is blocked while the contact has open jobs.
func (s *Service) UpdateContact(ctx context.Context, id uuid.UUID, req transport.UpdateContactRequest) (*repository.Contact, error) {
	c, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.BusinessID != nil && (c.BusinessID == nil || *c.BusinessID != *req.BusinessID) {
		open, err := s.jobs.OpenJobCountForContact(ctx, id)
		if err != nil {
			return nil, err
		}
		if open > 0 {
			return nil, apperr.Validationf("contact has %d open jobs and cannot change business", open)
		}
		if _, err := s.repo.GetBusiness(ctx, *req.BusinessID); err != nil {
			return nil, err
		}
		if err := s.clearDefaultOnDeparture(ctx, c); err != nil {
			return nil, err
		}
		c.BusinessID = req.BusinessID
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.TaxMultiplier != nil {
		c.TaxMultiplier = req.TaxMultiplier
	}
	if err := s.repo.UpdateContact(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteContact removes a contact. The last contact of a business cannot be
// deleted; deleting the current default promotes the sole remaining contact
// or requires an explicit successor.
func (s *Service) DeleteContact(ctx context.Context, id uuid.UUID, newDefaultID *uuid.UUID) error {
	c, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return err
	}
	if c.BusinessID != nil {
		siblings, err := s.survivingSiblings(ctx, c)
		if err != nil {
			return err
		}
		if len(siblings) == 0 {
			return apperr.Validation("cannot delete the last contact of a business")
		}
		if err := s.succeedDefault(ctx, c, siblings, newDefaultID); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteContact(ctx, id); err != nil {
		return err
	}
	s.log.Info("contact deleted", "contact_id", id)
	return nil
}

// ContactTaxMultiplier returns a contact's tax multiplier, used when pricing
// that contact's documents.
func (s *Service) ContactTaxMultiplier(ctx context.Context, contactID uuid.UUID) (*decimal.Decimal, error) {
	c, err := s.repo.GetContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	return c.TaxMultiplier, nil
}

func (s *Service) survivingSiblings(ctx context.Context, c *repository.Contact) ([]repository.Contact, error) {
	all, err := s.repo.ContactsByBusiness(ctx, *c.BusinessID)
	if err != nil {
		return nil, err
	}
	siblings := make([]repository.Contact, 0, len(all))
	for _, other := range all {
		if other.ID != c.ID {
			siblings = append(siblings, other)
		}
	}
	return siblings, nil
}

// succeedDefault keeps the business's default contact pointing at a live,
// attached contact when the current default goes away.
func (s *Service) succeedDefault(ctx context.Context, departing *repository.Contact, siblings []repository.Contact, newDefaultID *uuid.UUID) error {
	b, err := s.repo.GetBusiness(ctx, *departing.BusinessID)
	if err != nil {
		return err
	}
	if b.DefaultContactID == nil || *b.DefaultContactID != departing.ID {
		return nil
	}
	var successor uuid.UUID
	switch {
	case newDefaultID != nil:
		found := false
		for _, sib := range siblings {
			if sib.ID == *newDefaultID {
				found = true
				break
			}
		}
		if !found {
			return apperr.Validation("new default contact must be another contact of the business")
		}
		successor = *newDefaultID
	case len(siblings) == 1:
		successor = siblings[0].ID
	default:
		return apperr.Validation("business has multiple remaining contacts: pick a new default contact")
	}
	b.DefaultContactID = &successor
	return s.repo.UpdateBusiness(ctx, b)
}

// clearDefaultOnDeparture runs the default succession when a contact moves to
// another business.
func (s *Service) clearDefaultOnDeparture(ctx context.Context, c *repository.Contact) error {
	siblings, err := s.survivingSiblings(ctx, c)
	if err != nil {
		return err
	}
	b, err := s.repo.GetBusiness(ctx, *c.BusinessID)
	if err != nil {
		return err
	}
	if b.DefaultContactID == nil || *b.DefaultContactID != c.ID {
		return nil
	}
	if len(siblings) == 1 {
		b.DefaultContactID = &siblings[0].ID
	} else if len(siblings) == 0 {
		b.DefaultContactID = nil
	} else {
		return apperr.Validation("contact is the business default: pick a new default contact first")
	}
	return s.repo.UpdateBusiness(ctx, b)
}

// ── Purchasing documents ──────────────────────────────────────────────────────

// CreateDocument creates a purchase order or bill header in draft.
func (s *Service) CreateDocument(ctx context.Context, kind string, req transport.CreateDocumentRequest) (*repository.Document, error) {
	if req.ContactID != nil {
		if _, err := s.repo.GetContact(ctx, *req.ContactID); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	d := repository.Document{
		ID:        uuid.New(),
		ContactID: req.ContactID,
		Number:    req.Number,
		Status:    "draft",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateDocument(ctx, kind, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDocument returns one purchasing document header.
func (s *Service) GetDocument(ctx context.Context, kind string, id uuid.UUID) (*repository.Document, error) {
	return s.repo.GetDocument(ctx, kind, id)
}

// DeleteDocument removes a purchasing document. Only drafts can be deleted.
func (s *Service) DeleteDocument(ctx context.Context, kind string, id uuid.UUID) error {
	d, err := s.repo.GetDocument(ctx, kind, id)
	if err != nil {
		return err
	}
	if d.Status != "draft" {
		return apperr.Validationf("only draft documents can be deleted, this one is %s", d.Status)
	}
	return s.repo.DeleteDocument(ctx, kind, id)
}
