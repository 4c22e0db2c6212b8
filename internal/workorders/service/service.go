// Package service provides business logic for work orders.
package service

import (
	"context"
	"time"

	estrepo "fieldops_backend/internal/estimates/repository"
	"fieldops_backend/internal/numbering"
	"fieldops_backend/internal/workorders/domain"
	"fieldops_backend/internal/workorders/repository"
	wsrepo "fieldops_backend/internal/worksheets/repository"
	"fieldops_backend/platform/logger"

	"github.com/google/uuid"
)

// LineItemSource provides an accepted estimate's line items.
type LineItemSource interface {
	LineItems(ctx context.Context, estimateID uuid.UUID) ([]estrepo.LineItem, error)
}

// Service provides business logic for work orders.
type Service struct {
	repo    *repository.Repository
	lines   LineItemSource
	numbers numbering.Allocator
	log     *logger.Logger
}

// New creates a new work orders service.
func New(repo *repository.Repository, lines LineItemSource, numbers numbering.Allocator, log *logger.Logger) *Service {
	return &Service{repo: repo, lines: lines, numbers: numbers, log: log}
}

// Get returns one work order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.WorkOrder, error) {
	return s.repo.Get(ctx, id)
}

// ListByJob returns a job's work orders.
func (s *Service) ListByJob(ctx context.Context, jobID uuid.UUID) ([]repository.WorkOrder, error) {
	return s.repo.ListByJob(ctx, jobID)
}

// Tasks returns a work order's tasks in container order.
func (s *Service) Tasks(ctx context.Context, workOrderID uuid.UUID) ([]wsrepo.Task, error) {
	return s.repo.TasksByWorkOrder(ctx, workOrderID)
}

// ChangeStatus moves a work order through its lifecycle.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus string) (*repository.WorkOrder, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status == newStatus {
		return w, nil
	}
	if err := domain.ValidateStatusChange(w.Status, newStatus); err != nil {
		return nil, err
	}
	oldStatus := w.Status
	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	w.Status = newStatus
	s.log.StatusChange("work_order", w.WorkOrderNumber, oldStatus, newStatus)
	return w, nil
}

// CreateFromEstimate materializes the execution-side document for an accepted
// estimate: one direct task per line item, ordered by line number. Creation
// is idempotent per estimate.
func (s *Service) CreateFromEstimate(ctx context.Context, jobID, estimateID uuid.UUID) (*repository.WorkOrder, error) {
	exists, err := s.repo.ExistsForEstimate(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	lines, err := s.lines.LineItems(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	number, err := s.numbers.Next(ctx, numbering.DocTypeWorkOrder)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	w := repository.WorkOrder{
		ID:              uuid.New(),
		JobID:           jobID,
		EstimateID:      &estimateID,
		WorkOrderNumber: number,
		Status:          domain.StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	tasks := planTasks(w.ID, lines, now)
	if err := s.repo.CreateWithTasks(ctx, &w, tasks); err != nil {
		return nil, err
	}
	s.log.Info("work order created from estimate",
		"work_order_number", number, "estimate_id", estimateID, "tasks", len(tasks))
	return &w, nil
}
