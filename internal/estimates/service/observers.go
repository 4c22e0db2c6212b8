package service

import (
	"context"

	"fieldops_backend/internal/estimates/domain"
	"fieldops_backend/internal/estimates/repository"

	"github.com/google/uuid"
)

// WorksheetUpdater stamps a worksheet with the status its estimate implies.
type WorksheetUpdater interface {
	ApplyEstimateStatus(ctx context.Context, estimateID uuid.UUID, estimateStatus string) error
}

// JobSignals drives a job's status from estimate events.
type JobSignals interface {
	MarkApproved(ctx context.Context, jobID uuid.UUID) error
	MarkBlocked(ctx context.Context, jobID uuid.UUID) error
}

// WorksheetObserver propagates estimate status changes onto the linked
// worksheet.
type WorksheetObserver struct {
	Worksheets WorksheetUpdater
}

// EstimateStatusChanged implements StatusObserver.
func (o *WorksheetObserver) EstimateStatusChanged(ctx context.Context, e *repository.Estimate, oldStatus, newStatus string) error {
	return o.Worksheets.ApplyEstimateStatus(ctx, e.ID, newStatus)
}

// JobObserver propagates estimate status changes onto the owning job:
// acceptance approves the job, superseding a previously accepted estimate
// blocks it.
type JobObserver struct {
	Jobs JobSignals
}

// EstimateStatusChanged implements StatusObserver.
func (o *JobObserver) EstimateStatusChanged(ctx context.Context, e *repository.Estimate, oldStatus, newStatus string) error {
	switch {
	case newStatus == domain.StatusAccepted:
		return o.Jobs.MarkApproved(ctx, e.JobID)
	case newStatus == domain.StatusSuperseded && oldStatus == domain.StatusAccepted:
		return o.Jobs.MarkBlocked(ctx, e.JobID)
	}
	return nil
}
