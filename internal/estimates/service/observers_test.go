package service

import (
	"context"
	"testing"

	"fieldops_backend/internal/estimates/domain"
	"fieldops_backend/internal/estimates/repository"

	"github.com/google/uuid"
)

type fakeJobs struct {
	approved []uuid.UUID
	blocked  []uuid.UUID
}

func (f *fakeJobs) MarkApproved(_ context.Context, jobID uuid.UUID) error {
	f.approved = append(f.approved, jobID)
	return nil
}

func (f *fakeJobs) MarkBlocked(_ context.Context, jobID uuid.UUID) error {
	f.blocked = append(f.blocked, jobID)
	return nil
}

func TestJobObserver(t *testing.T) {
	jobID := uuid.New()
	estimate := &repository.Estimate{ID: uuid.New(), JobID: jobID}

	t.Run("acceptance approves the job", func(t *testing.T) {
		jobs := &fakeJobs{}
		o := &JobObserver{Jobs: jobs}
		if err := o.EstimateStatusChanged(context.Background(), estimate, domain.StatusOpen, domain.StatusAccepted); err != nil {
			t.Fatal(err)
		}
		if len(jobs.approved) != 1 || jobs.approved[0] != jobID {
			t.Fatalf("approved = %v, want [%s]", jobs.approved, jobID)
		}
	})

	t.Run("superseding an accepted estimate blocks the job", func(t *testing.T) {
		jobs := &fakeJobs{}
		o := &JobObserver{Jobs: jobs}
		if err := o.EstimateStatusChanged(context.Background(), estimate, domain.StatusAccepted, domain.StatusSuperseded); err != nil {
			t.Fatal(err)
		}
		if len(jobs.blocked) != 1 {
			t.Fatalf("blocked = %v, want one entry", jobs.blocked)
		}
	})

	t.Run("superseding an open estimate leaves the job alone", func(t *testing.T) {
		jobs := &fakeJobs{}
		o := &JobObserver{Jobs: jobs}
		if err := o.EstimateStatusChanged(context.Background(), estimate, domain.StatusOpen, domain.StatusSuperseded); err != nil {
			t.Fatal(err)
		}
		if len(jobs.approved) != 0 || len(jobs.blocked) != 0 {
			t.Fatalf("no signal expected, got approved=%v blocked=%v", jobs.approved, jobs.blocked)
		}
	})
}
