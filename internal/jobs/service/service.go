// Package service provides business logic for the jobs bounded context.
package service

import (
	"context"
	"fmt"
	"time"

	"fieldops_backend/internal/jobs/domain"
	"fieldops_backend/internal/jobs/repository"
	"fieldops_backend/internal/jobs/transport"
	"fieldops_backend/internal/numbering"
	"fieldops_backend/internal/workflow"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides business logic for jobs.
type Service struct {
	repo    *repository.Repository
	numbers numbering.Allocator
	log     *logger.Logger
}

// New creates a new jobs service.
func New(repo *repository.Repository, numbers numbering.Allocator, log *logger.Logger) *Service {
	return &Service{repo: repo, numbers: numbers, log: log}
}

// Create creates a new job in draft with a freshly allocated number.
func (s *Service) Create(ctx context.Context, req transport.CreateJobRequest) (*repository.Job, error) {
	jobNumber, err := s.numbers.Next(ctx, numbering.DocTypeJob)
	if err != nil {
		return nil, fmt.Errorf("generate job number: %w", err)
	}

	now := time.Now()
	job := repository.Job{
		ID:          uuid.New(),
		JobNumber:   jobNumber,
		Status:      domain.StatusDraft,
		ContactID:   req.ContactID,
		Description: req.Description,
		CreatedDate: &now,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Get returns one job.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Job, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns jobs matching the filters.
func (s *Service) List(ctx context.Context, req transport.ListJobsRequest) (*repository.ListResult, error) {
	params := repository.ListParams{
		ContactID: req.ContactID,
		Status:    req.Status,
		Search:    req.Search,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 25
	}
	return s.repo.List(ctx, params)
}

// Update applies a partial update. The write-once date fields are compared
// against the stored row: once set, an attempted change is silently reverted
// to the stored value rather than rejected.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateJobRequest) (*repository.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ContactID != nil {
		job.ContactID = *req.ContactID
	}
	if req.Description != nil {
		job.Description = req.Description
	}
	if req.DueDate != nil {
		job.DueDate = req.DueDate
	}

	job.CreatedDate = workflow.ProtectDate(job.CreatedDate, req.CreatedDate)
	job.StartDate = workflow.ProtectDate(job.StartDate, req.StartDate)
	job.CompletedDate = workflow.ProtectDate(job.CompletedDate, req.CompletedDate)

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Delete removes a job. Only draft jobs may be deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != domain.StatusDraft {
		return apperr.Validation("only draft jobs can be deleted")
	}
	return s.repo.Delete(ctx, id)
}

// ChangeStatus validates and applies a status transition with its date side
// effects.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus string) (*repository.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateStatusChange(job.Status, newStatus); err != nil {
		return nil, err
	}

	oldStatus := job.Status
	job.Status = newStatus
	job.StartDate, job.CompletedDate = domain.StampStatusDates(newStatus, job.StartDate, job.CompletedDate, time.Now())

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	s.log.StatusChange("job", job.JobNumber, oldStatus, newStatus)
	return job, nil
}

// MarkApproved drives a job to approved along its legal transition path.
// Called when an estimate for the job is accepted.
func (s *Service) MarkApproved(ctx context.Context, id uuid.UUID) error {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	path := domain.ApprovalPath(job.Status)
	if path == nil {
		return apperr.Validationf("job in status %s cannot be approved", job.Status)
	}
	for _, status := range path {
		if _, err := s.ChangeStatus(ctx, id, status); err != nil {
			return err
		}
	}
	return nil
}

// MarkBlocked moves an approved job to blocked. Called when the accepted
// estimate backing the job is superseded.
func (s *Service) MarkBlocked(ctx context.Context, id uuid.UUID) error {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != domain.StatusApproved {
		// Only an approved job loses its footing when its estimate goes away.
		return nil
	}
	_, err = s.ChangeStatus(ctx, id, domain.StatusBlocked)
	return err
}

// HasAcceptedEstimate reports whether the job already has an accepted
// estimate other than the one given.
func (s *Service) HasAcceptedEstimate(ctx context.Context, jobID uuid.UUID, excludeEstimateID *uuid.UUID) (bool, error) {
	return s.repo.HasAcceptedEstimate(ctx, jobID, excludeEstimateID)
}

// ContactIDForJob returns the contact owning a job.
func (s *Service) ContactIDForJob(ctx context.Context, jobID uuid.UUID) (uuid.UUID, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return uuid.Nil, err
	}
	return job.ContactID, nil
}

// OpenJobCountForContact reports how many non-terminal jobs a contact has.
func (s *Service) OpenJobCountForContact(ctx context.Context, contactID uuid.UUID) (int, error) {
	return s.repo.OpenJobCountForContact(ctx, contactID)
}
