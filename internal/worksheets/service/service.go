// Package service provides business logic for worksheets, tasks, and the
// bundle lifecycle.
package service

import (
	"context"
	"time"

	"fieldops_backend/internal/bundling"
	"fieldops_backend/internal/worksheets/domain"
	"fieldops_backend/internal/worksheets/repository"
	"fieldops_backend/internal/worksheets/transport"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service provides business logic for worksheets.
type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

// New creates a new worksheets service.
func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ── Worksheets ────────────────────────────────────────────────────────────────

// Create creates a new draft worksheet at version 1.
func (s *Service) Create(ctx context.Context, req transport.CreateWorksheetRequest) (*repository.Worksheet, error) {
	now := time.Now()
	w := repository.Worksheet{
		ID:         uuid.New(),
		JobID:      req.JobID,
		TemplateID: req.TemplateID,
		Status:     domain.StatusDraft,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateWorksheet(ctx, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Get returns one worksheet.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Worksheet, error) {
	return s.repo.GetWorksheet(ctx, id)
}

// ListByJob returns all worksheets for a job.
func (s *Service) ListByJob(ctx context.Context, jobID uuid.UUID) ([]repository.Worksheet, error) {
	return s.repo.ListWorksheetsByJob(ctx, jobID)
}

// Tasks returns a worksheet's tasks in container order.
func (s *Service) Tasks(ctx context.Context, worksheetID uuid.UUID) ([]repository.Task, error) {
	return s.repo.TasksByWorksheet(ctx, worksheetID)
}

// Bundles returns a worksheet's bundles in container order.
func (s *Service) Bundles(ctx context.Context, worksheetID uuid.UUID) ([]repository.TaskBundle, error) {
	return s.repo.BundlesByWorksheet(ctx, worksheetID)
}

// editable loads a worksheet and rejects mutation on final or superseded
// versions.
func (s *Service) editable(ctx context.Context, id uuid.UUID) (*repository.Worksheet, error) {
	w, err := s.repo.GetWorksheet(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != domain.StatusDraft {
		return nil, apperr.Validationf("worksheet is %s and cannot be modified", w.Status)
	}
	return w, nil
}

// CreateNewVersion supersedes the worksheet and deep-copies its tasks and
// bundles into a fresh draft at version+1.
func (s *Service) CreateNewVersion(ctx context.Context, id uuid.UUID) (*repository.Worksheet, error) {
	old, err := s.repo.GetWorksheet(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.Status == domain.StatusSuperseded {
		return nil, apperr.Validation("worksheet is already superseded")
	}

	tasks, err := s.repo.TasksByWorksheet(ctx, id)
	if err != nil {
		return nil, err
	}
	bundles, err := s.repo.BundlesByWorksheet(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := s.repo.CreateVersion(ctx, old, tasks, bundles)
	if err != nil {
		return nil, err
	}
	s.log.Info("worksheet version created",
		"worksheet_id", next.ID, "parent_id", old.ID, "version", next.Version)
	return next, nil
}

// ApplyEstimateStatus stamps the worksheet linked to an estimate with the
// status that estimate state implies. No-op when no worksheet is linked.
func (s *Service) ApplyEstimateStatus(ctx context.Context, estimateID uuid.UUID, estimateStatus string) error {
	w, err := s.repo.WorksheetForEstimate(ctx, estimateID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	return s.repo.UpdateWorksheetStatus(ctx, w.ID, domain.StatusForEstimate(estimateStatus))
}

// LinkEstimate records the estimate generated from a worksheet.
func (s *Service) LinkEstimate(ctx context.Context, worksheetID, estimateID uuid.UUID) error {
	return s.repo.SetEstimate(ctx, worksheetID, estimateID)
}

// ── Tasks ─────────────────────────────────────────────────────────────────────

// CreateTask adds a task at the next container-level slot. New tasks never
// enter a bundle directly; grouping is a separate operation.
func (s *Service) CreateTask(ctx context.Context, worksheetID uuid.UUID, req transport.CreateTaskRequest) (*repository.Task, error) {
	if _, err := s.editable(ctx, worksheetID); err != nil {
		return nil, err
	}

	strategy := req.MappingStrategy
	if strategy == "" {
		strategy = domain.MappingDirect
	}
	if err := domain.ValidateMapping(strategy, nil); err != nil {
		return nil, err
	}

	snap, err := s.repo.Snapshot(ctx, worksheetID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t := repository.Task{
		ID:               uuid.New(),
		WorksheetID:      &worksheetID,
		ParentTaskID:     req.ParentTaskID,
		LineItemTypeID:   req.LineItemTypeID,
		Assignee:         req.Assignee,
		Name:             req.Name,
		Description:      req.Description,
		Units:            req.Units,
		Rate:             valueOrZero(req.Rate),
		EstQty:           valueOrOne(req.EstQty),
		SortOrder:        snap.NextContainerSort(),
		MappingStrategy:  strategy,
		BundleIdentifier: req.BundleIdentifier,
		ProductType:      req.ProductType,
		StepType:         req.StepType,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if t.Units == "" {
		t.Units = "each"
	}
	if err := s.repo.CreateTask(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, id uuid.UUID) (*repository.Task, error) {
	return s.repo.GetTask(ctx, id)
}

// UpdateTask applies a partial update. Bundle membership and sort order are
// owned by the bundle operations and cannot change here; the mapping strategy
// may only toggle between direct and exclude for unbundled tasks.
func (s *Service) UpdateTask(ctx context.Context, id uuid.UUID, req transport.UpdateTaskRequest) (*repository.Task, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.WorksheetID == nil {
		return nil, apperr.Validation("task does not belong to a worksheet")
	}
	if _, err := s.editable(ctx, *t.WorksheetID); err != nil {
		return nil, err
	}

	if req.MappingStrategy != nil {
		if t.BundleID != nil {
			return nil, apperr.Validation("bundled task: remove it from the bundle first")
		}
		if err := domain.ValidateMapping(*req.MappingStrategy, nil); err != nil {
			return nil, err
		}
		t.MappingStrategy = *req.MappingStrategy
	}
	if req.ParentTaskID != nil {
		t.ParentTaskID = req.ParentTaskID
	}
	if req.LineItemTypeID != nil {
		t.LineItemTypeID = req.LineItemTypeID
	}
	if req.Assignee != nil {
		t.Assignee = req.Assignee
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.Units != nil {
		t.Units = *req.Units
	}
	if req.Rate != nil {
		t.Rate = *req.Rate
	}
	if req.EstQty != nil {
		t.EstQty = *req.EstQty
	}
	if req.BundleIdentifier != nil {
		t.BundleIdentifier = req.BundleIdentifier
	}
	if req.ProductType != nil {
		t.ProductType = req.ProductType
	}
	if req.StepType != nil {
		t.StepType = req.StepType
	}

	if err := s.repo.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTask removes a task. A bundled task takes its bundle's dissolve
// rules with it in the same transaction.
func (s *Service) DeleteTask(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if t.WorksheetID == nil {
		return apperr.Validation("task does not belong to a worksheet")
	}
	if _, err := s.editable(ctx, *t.WorksheetID); err != nil {
		return err
	}

	if t.BundleID == nil {
		return s.repo.DeleteTask(ctx, id)
	}

	snap, err := s.repo.Snapshot(ctx, *t.WorksheetID)
	if err != nil {
		return err
	}
	bundle, err := s.repo.GetBundle(ctx, *t.BundleID)
	if err != nil {
		return err
	}
	plan, err := bundling.PlanRemoval(snap, bundling.Bundle{ID: bundle.ID, SortOrder: bundle.SortOrder}, id)
	if err != nil {
		return err
	}
	// The deleted task never returns to the container, so no slot is made
	// for it.
	plan.BumpFrom = 0
	return s.repo.DeleteTaskWithDissolve(ctx, *t.WorksheetID, bundle.ID, id, plan)
}

// ── Bundle lifecycle ──────────────────────────────────────────────────────────

// GroupTasks groups the given tasks into a bundle. A bundle with the same
// name on the same worksheet is reused and accumulates membership; a new
// bundle requires at least two tasks.
func (s *Service) GroupTasks(ctx context.Context, worksheetID uuid.UUID, req transport.GroupTasksRequest) (*repository.TaskBundle, error) {
	if _, err := s.editable(ctx, worksheetID); err != nil {
		return nil, err
	}

	existing, err := s.repo.BundleByName(ctx, worksheetID, req.Name)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		existing = nil
	}
	if existing == nil && len(req.TaskIDs) < 2 {
		return nil, apperr.Validation("a new bundle needs at least two tasks")
	}

	snap, err := s.repo.Snapshot(ctx, worksheetID)
	if err != nil {
		return nil, err
	}

	var existingRef *bundling.Bundle
	if existing != nil {
		existingRef = &bundling.Bundle{ID: existing.ID, SortOrder: existing.SortOrder}
	}
	plan, err := bundling.PlanGroup(snap, existingRef, req.TaskIDs)
	if err != nil {
		return nil, err
	}

	meta := &repository.TaskBundle{
		ID:             plan.BundleID,
		WorksheetID:    &worksheetID,
		Name:           req.Name,
		Description:    req.Description,
		LineItemTypeID: req.LineItemTypeID,
		SortOrder:      plan.BundleSort,
	}
	if err := s.repo.ApplyGroup(ctx, worksheetID, meta, plan); err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return meta, nil
}

// RemoveFromBundle takes one task out of its bundle, applying the dissolve
// rules.
func (s *Service) RemoveFromBundle(ctx context.Context, worksheetID, bundleID, taskID uuid.UUID) error {
	if _, err := s.editable(ctx, worksheetID); err != nil {
		return err
	}
	bundle, err := s.repo.GetBundle(ctx, bundleID)
	if err != nil {
		return err
	}
	if bundle.WorksheetID == nil || *bundle.WorksheetID != worksheetID {
		return apperr.NotFound("bundle not found on this worksheet")
	}

	snap, err := s.repo.Snapshot(ctx, worksheetID)
	if err != nil {
		return err
	}
	plan, err := bundling.PlanRemoval(snap, bundling.Bundle{ID: bundle.ID, SortOrder: bundle.SortOrder}, taskID)
	if err != nil {
		return err
	}
	return s.repo.ApplyRemoval(ctx, worksheetID, bundleID, taskID, plan)
}

// MoveTask moves a task from its current bundle into another bundle on the
// same worksheet. The source bundle runs its dissolve rules.
func (s *Service) MoveTask(ctx context.Context, worksheetID uuid.UUID, req transport.MoveTaskRequest) error {
	if _, err := s.editable(ctx, worksheetID); err != nil {
		return err
	}

	t, err := s.repo.GetTask(ctx, req.TaskID)
	if err != nil {
		return err
	}
	if t.BundleID == nil {
		return apperr.Validation("task is not in a bundle")
	}
	source, err := s.repo.GetBundle(ctx, *t.BundleID)
	if err != nil {
		return err
	}
	dest, err := s.repo.GetBundle(ctx, req.DestBundleID)
	if err != nil {
		return err
	}
	if dest.WorksheetID == nil || *dest.WorksheetID != worksheetID {
		return apperr.NotFound("destination bundle not found on this worksheet")
	}

	snap, err := s.repo.Snapshot(ctx, worksheetID)
	if err != nil {
		return err
	}
	plan, err := bundling.PlanMove(snap,
		bundling.Bundle{ID: source.ID, SortOrder: source.SortOrder},
		bundling.Bundle{ID: dest.ID, SortOrder: dest.SortOrder},
		req.TaskID)
	if err != nil {
		return err
	}
	return s.repo.ApplyMove(ctx, worksheetID, source.ID, req.TaskID, plan)
}

// ── Template generation support ───────────────────────────────────────────────

// ImportGenerated appends template-generated bundles and tasks to a
// worksheet in one transaction. Incoming container-level sort orders are
// relative (starting at 1) and are shifted past the worksheet's current
// maximum; within-bundle orders land as given.
func (s *Service) ImportGenerated(ctx context.Context, worksheetID uuid.UUID, bundles []repository.TaskBundle, tasks []repository.Task) error {
	if _, err := s.editable(ctx, worksheetID); err != nil {
		return err
	}

	snap, err := s.repo.Snapshot(ctx, worksheetID)
	if err != nil {
		return err
	}
	base := snap.NextContainerSort() - 1

	now := time.Now()
	for i := range bundles {
		bundles[i].WorksheetID = &worksheetID
		bundles[i].WorkOrderID = nil
		bundles[i].SortOrder += base
		bundles[i].CreatedAt = now
	}
	for i := range tasks {
		tasks[i].WorksheetID = &worksheetID
		tasks[i].WorkOrderID = nil
		if tasks[i].BundleID == nil {
			tasks[i].SortOrder += base
		}
		tasks[i].CreatedAt = now
		tasks[i].UpdatedAt = now
	}
	return s.repo.BulkInsert(ctx, bundles, tasks)
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func valueOrOne(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.NewFromInt(1)
	}
	return *d
}
