// Package service provides business logic for estimates: generation from
// worksheets, versioning, and the status lifecycle with its cross-entity
// signals.
package service

import (
	"context"
	"fmt"
	"time"

	"fieldops_backend/internal/estimates/domain"
	"fieldops_backend/internal/estimates/repository"
	"fieldops_backend/internal/estimates/transport"
	"fieldops_backend/internal/numbering"
	"fieldops_backend/internal/workflow"
	wsrepo "fieldops_backend/internal/worksheets/repository"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/logger"

	"github.com/google/uuid"
)

// WorksheetSource reads the worksheet side of estimate generation.
type WorksheetSource interface {
	Get(ctx context.Context, id uuid.UUID) (*wsrepo.Worksheet, error)
	Tasks(ctx context.Context, worksheetID uuid.UUID) ([]wsrepo.Task, error)
	Bundles(ctx context.Context, worksheetID uuid.UUID) ([]wsrepo.TaskBundle, error)
}

// ExpirationSource reads the configured estimate expiration window.
type ExpirationSource interface {
	EstExpireDays(ctx context.Context) int
}

// StatusObserver is notified after an estimate status change is persisted.
// Observers run synchronously in registration order.
type StatusObserver interface {
	EstimateStatusChanged(ctx context.Context, e *repository.Estimate, oldStatus, newStatus string) error
}

// Service provides business logic for estimates.
type Service struct {
	repo       *repository.Repository
	worksheets WorksheetSource
	pricing    PricingSource
	settings   ExpirationSource
	numbers    numbering.Allocator
	log        *logger.Logger
	observers  []StatusObserver
	customers  CustomerSource
}

// New creates a new estimates service.
func New(repo *repository.Repository, worksheets WorksheetSource, pricing PricingSource, settings ExpirationSource, numbers numbering.Allocator, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		worksheets: worksheets,
		pricing:    pricing,
		settings:   settings,
		numbers:    numbers,
		log:        log,
	}
}

// AddStatusObserver registers an observer for estimate status changes.
func (s *Service) AddStatusObserver(o StatusObserver) {
	s.observers = append(s.observers, o)
}

func (s *Service) notifyObservers(ctx context.Context, e *repository.Estimate, oldStatus, newStatus string) error {
	for _, o := range s.observers {
		if err := o.EstimateStatusChanged(ctx, e, oldStatus, newStatus); err != nil {
			return err
		}
	}
	return nil
}

// Get returns one estimate.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Estimate, error) {
	return s.repo.Get(ctx, id)
}

// ListByJob returns all estimates for a job.
func (s *Service) ListByJob(ctx context.Context, jobID uuid.UUID) ([]repository.Estimate, error) {
	return s.repo.ListByJob(ctx, jobID)
}

// LineItems returns an estimate's line items in line-number order.
func (s *Service) LineItems(ctx context.Context, estimateID uuid.UUID) ([]repository.LineItem, error) {
	return s.repo.LineItemsByEstimate(ctx, estimateID)
}

// Generate builds an estimate from a worksheet's tasks. A worksheet whose
// parent already produced an estimate inherits that estimate's number at
// version+1 and supersedes it; otherwise a fresh number is allocated at
// version 1. The estimate, its line items, the worksheet link, and the
// parent supersede all commit in one transaction.
func (s *Service) Generate(ctx context.Context, worksheetID uuid.UUID) (*repository.Estimate, error) {
	ws, err := s.worksheets.Get(ctx, worksheetID)
	if err != nil {
		return nil, err
	}
	if ws.EstimateID != nil {
		return nil, apperr.Validation("worksheet already generated an estimate")
	}

	tasks, err := s.worksheets.Tasks(ctx, worksheetID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrEmptyWorksheet
	}
	bundles, err := s.worksheets.Bundles(ctx, worksheetID)
	if err != nil {
		return nil, err
	}

	lines, err := planLineItems(ctx, s.pricing, tasks, bundles)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	e := repository.Estimate{
		ID:          uuid.New(),
		JobID:       ws.JobID,
		Version:     1,
		Status:      domain.StatusDraft,
		CreatedDate: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var parent *repository.Estimate
	var parentOldStatus string
	if ws.ParentID != nil {
		parentWS, err := s.worksheets.Get(ctx, *ws.ParentID)
		if err != nil {
			return nil, err
		}
		if parentWS.EstimateID != nil {
			parent, err = s.repo.Get(ctx, *parentWS.EstimateID)
			if err != nil {
				return nil, err
			}
		}
	}
	if parent != nil {
		e.EstimateNumber = parent.EstimateNumber
		e.Version = parent.Version + 1
		e.ParentID = &parent.ID

		parentOldStatus = parent.Status
		parent.Status = domain.StatusSuperseded
		parent.ClosedDate = workflow.SetOnce(parent.ClosedDate, now)
	} else {
		number, err := s.numbers.Next(ctx, numbering.DocTypeEstimate)
		if err != nil {
			return nil, fmt.Errorf("generate estimate number: %w", err)
		}
		e.EstimateNumber = number
	}

	if err := s.repo.CreateWithLines(ctx, &e, lines, worksheetID, parent); err != nil {
		return nil, err
	}

	s.log.Info("estimate generated",
		"estimate_id", e.ID, "estimate_number", e.EstimateNumber,
		"version", e.Version, "line_items", len(lines))

	if parent != nil {
		s.log.StatusChange("estimate", parent.EstimateNumber, parentOldStatus, domain.StatusSuperseded)
		if err := s.notifyObservers(ctx, parent, parentOldStatus, domain.StatusSuperseded); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// Update applies a partial update to an estimate's date fields. Once set,
// the protected dates silently keep their stored values.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateEstimateRequest) (*repository.Estimate, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	e.CreatedDate = workflow.ProtectDate(e.CreatedDate, req.CreatedDate)
	e.SentDate = workflow.ProtectDate(e.SentDate, req.SentDate)
	e.ClosedDate = workflow.ProtectDate(e.ClosedDate, req.ClosedDate)
	e.ExpirationDate = workflow.ProtectDate(e.ExpirationDate, req.ExpirationDate)

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ChangeStatus validates and applies an estimate status transition, stamps
// its date side effects, and fires the worksheet and job signals.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus string) (*repository.Estimate, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateStatusChange(e.Status, newStatus); err != nil {
		return nil, err
	}
	if newStatus == e.Status {
		return e, nil
	}

	if newStatus == domain.StatusAccepted {
		exists, err := s.repo.AcceptedExists(ctx, e.JobID, &e.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperr.Validation("job already has an accepted estimate")
		}
	}

	oldStatus := e.Status
	e.Status = newStatus
	e.SentDate, e.ExpirationDate, e.ClosedDate = domain.StampStatusDates(
		newStatus, e.SentDate, e.ExpirationDate, e.ClosedDate,
		time.Now(), s.settings.EstExpireDays(ctx))

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.log.StatusChange("estimate", e.EstimateNumber, oldStatus, newStatus)

	if err := s.notifyObservers(ctx, e, oldStatus, newStatus); err != nil {
		return nil, err
	}
	return e, nil
}
