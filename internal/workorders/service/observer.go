package service

import (
	"context"

	estdomain "fieldops_backend/internal/estimates/domain"
	estrepo "fieldops_backend/internal/estimates/repository"
)

// EstimateObserver creates a work order when an estimate is accepted.
type EstimateObserver struct {
	svc *Service
}

// NewEstimateObserver creates the acceptance observer.
func NewEstimateObserver(svc *Service) *EstimateObserver {
	return &EstimateObserver{svc: svc}
}

// EstimateStatusChanged reacts to estimate lifecycle events.
func (o *EstimateObserver) EstimateStatusChanged(ctx context.Context, e *estrepo.Estimate, oldStatus, newStatus string) error {
	if newStatus != estdomain.StatusAccepted {
		return nil
	}
	_, err := o.svc.CreateFromEstimate(ctx, e.JobID, e.ID)
	return err
}
