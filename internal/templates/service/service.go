// Package service provides business logic for work order templates, task
// templates, and template-time bundling.
package service

import (
	"context"
	"time"

	"fieldops_backend/internal/bundling"
	"fieldops_backend/internal/templates/repository"
	"fieldops_backend/internal/templates/transport"
	wsrepo "fieldops_backend/internal/worksheets/repository"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorksheetImporter lands generated bundles and tasks on a worksheet.
type WorksheetImporter interface {
	ImportGenerated(ctx context.Context, worksheetID uuid.UUID, bundles []wsrepo.TaskBundle, tasks []wsrepo.Task) error
}

// Service provides business logic for templates.
type Service struct {
	repo       *repository.Repository
	worksheets WorksheetImporter
	log        *logger.Logger
}

// New creates a new templates service.
func New(repo *repository.Repository, worksheets WorksheetImporter, log *logger.Logger) *Service {
	return &Service{repo: repo, worksheets: worksheets, log: log}
}

// ── Work order templates ──────────────────────────────────────────────────────

// CreateTemplate creates a new work order template.
func (s *Service) CreateTemplate(ctx context.Context, req transport.CreateTemplateRequest) (*repository.WorkOrderTemplate, error) {
	now := time.Now()
	t := repository.WorkOrderTemplate{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		ProductType: req.ProductType,
		BasePrice:   req.BasePrice,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateTemplate(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTemplate returns one work order template.
func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*repository.WorkOrderTemplate, error) {
	return s.repo.GetTemplate(ctx, id)
}

// ListTemplates returns all work order templates.
func (s *Service) ListTemplates(ctx context.Context) ([]repository.WorkOrderTemplate, error) {
	return s.repo.ListTemplates(ctx)
}

// UpdateTemplate applies a partial update to a work order template.
func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, req transport.UpdateTemplateRequest) (*repository.WorkOrderTemplate, error) {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.ProductType != nil {
		t.ProductType = req.ProductType
	}
	if req.BasePrice != nil {
		t.BasePrice = req.BasePrice
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTemplate removes a work order template.
func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTemplate(ctx, id)
}

// ── Task templates ────────────────────────────────────────────────────────────

// CreateTaskTemplate creates a new task template.
func (s *Service) CreateTaskTemplate(ctx context.Context, req transport.CreateTaskTemplateRequest) (*repository.TaskTemplate, error) {
	now := time.Now()
	t := repository.TaskTemplate{
		ID:             uuid.New(),
		Name:           req.Name,
		Description:    req.Description,
		Units:          req.Units,
		DefaultRate:    valueOrZero(req.DefaultRate),
		DefaultQty:     valueOrOne(req.DefaultQty),
		LineItemTypeID: req.LineItemTypeID,
		ProductType:    req.ProductType,
		StepType:       req.StepType,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.Units == "" {
		t.Units = "each"
	}
	if err := s.repo.CreateTaskTemplate(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTaskTemplate returns one task template.
func (s *Service) GetTaskTemplate(ctx context.Context, id uuid.UUID) (*repository.TaskTemplate, error) {
	return s.repo.GetTaskTemplate(ctx, id)
}

// ListTaskTemplates returns all task templates.
func (s *Service) ListTaskTemplates(ctx context.Context) ([]repository.TaskTemplate, error) {
	return s.repo.ListTaskTemplates(ctx)
}

// UpdateTaskTemplate applies a partial update to a task template.
func (s *Service) UpdateTaskTemplate(ctx context.Context, id uuid.UUID, req transport.UpdateTaskTemplateRequest) (*repository.TaskTemplate, error) {
	t, err := s.repo.GetTaskTemplate(ctx, id)
	if err != nil {
		return nil, err
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
	if req.DefaultRate != nil {
		t.DefaultRate = *req.DefaultRate
	}
	if req.DefaultQty != nil {
		t.DefaultQty = *req.DefaultQty
	}
	if req.LineItemTypeID != nil {
		t.LineItemTypeID = req.LineItemTypeID
	}
	if req.ProductType != nil {
		t.ProductType = req.ProductType
	}
	if req.StepType != nil {
		t.StepType = req.StepType
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateTaskTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTaskTemplate removes a task template.
func (s *Service) DeleteTaskTemplate(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTaskTemplate(ctx, id)
}

// ── Associations ──────────────────────────────────────────────────────────────

// AddAssociation ties a task template into a work order template at the next
// container-level slot.
func (s *Service) AddAssociation(ctx context.Context, templateID uuid.UUID, req transport.AddAssociationRequest) (*repository.Association, error) {
	if _, err := s.repo.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetTaskTemplate(ctx, req.TaskTemplateID); err != nil {
		return nil, err
	}

	snap, err := s.repo.Snapshot(ctx, templateID)
	if err != nil {
		return nil, err
	}

	strategy := req.MappingStrategy
	if strategy == "" {
		strategy = "direct"
	}
	a := repository.Association{
		ID:               uuid.New(),
		TemplateID:       templateID,
		TaskTemplateID:   req.TaskTemplateID,
		SortOrder:        snap.NextContainerSort(),
		MappingStrategy:  strategy,
		BundleIdentifier: req.BundleIdentifier,
		CreatedAt:        time.Now(),
	}
	if err := s.repo.CreateAssociation(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Associations returns a template's associations in container order.
func (s *Service) Associations(ctx context.Context, templateID uuid.UUID) ([]repository.Association, error) {
	return s.repo.AssociationsByTemplate(ctx, templateID)
}

// RemoveAssociation removes an association. A bundled association runs its
// bundle's dissolve rules first.
func (s *Service) RemoveAssociation(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetAssociation(ctx, id)
	if err != nil {
		return err
	}
	if a.BundleID != nil {
		snap, err := s.repo.Snapshot(ctx, a.TemplateID)
		if err != nil {
			return err
		}
		bundle, err := s.repo.GetTemplateBundle(ctx, *a.BundleID)
		if err != nil {
			return err
		}
		plan, err := bundling.PlanRemoval(snap, bundling.Bundle{ID: bundle.ID, SortOrder: bundle.SortOrder}, id)
		if err != nil {
			return err
		}
		// The removed association never returns to the container, so no
		// slot is made for it.
		plan.BumpFrom = 0
		if err := s.repo.ApplyRemoval(ctx, a.TemplateID, bundle.ID, id, plan); err != nil {
			return err
		}
	}
	return s.repo.DeleteAssociation(ctx, id)
}

// ── Template bundles ──────────────────────────────────────────────────────────

// GroupAssociations groups associations into a template bundle, reusing an
// existing bundle of the same name on the same template.
func (s *Service) GroupAssociations(ctx context.Context, templateID uuid.UUID, req transport.GroupAssociationsRequest) (*repository.TemplateBundle, error) {
	existing, err := s.repo.TemplateBundleByName(ctx, templateID, req.Name)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		existing = nil
	}
	if existing == nil && len(req.AssociationIDs) < 2 {
		return nil, apperr.Validation("a new bundle needs at least two associations")
	}

	snap, err := s.repo.Snapshot(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var existingRef *bundling.Bundle
	if existing != nil {
		existingRef = &bundling.Bundle{ID: existing.ID, SortOrder: existing.SortOrder}
	}
	plan, err := bundling.PlanGroup(snap, existingRef, req.AssociationIDs)
	if err != nil {
		return nil, err
	}

	meta := &repository.TemplateBundle{
		ID:             plan.BundleID,
		TemplateID:     templateID,
		Name:           req.Name,
		Description:    req.Description,
		LineItemTypeID: req.LineItemTypeID,
		SortOrder:      plan.BundleSort,
	}
	if err := s.repo.ApplyGroup(ctx, templateID, meta, plan); err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return meta, nil
}

// RemoveFromBundle takes one association out of its template bundle,
// applying the dissolve rules.
func (s *Service) RemoveFromBundle(ctx context.Context, templateID, bundleID, associationID uuid.UUID) error {
	bundle, err := s.repo.GetTemplateBundle(ctx, bundleID)
	if err != nil {
		return err
	}
	if bundle.TemplateID != templateID {
		return apperr.NotFound("bundle not found on this template")
	}

	snap, err := s.repo.Snapshot(ctx, templateID)
	if err != nil {
		return err
	}
	plan, err := bundling.PlanRemoval(snap, bundling.Bundle{ID: bundle.ID, SortOrder: bundle.SortOrder}, associationID)
	if err != nil {
		return err
	}
	return s.repo.ApplyRemoval(ctx, templateID, bundleID, associationID, plan)
}

// TemplateBundles returns a template's bundles in container order.
func (s *Service) TemplateBundles(ctx context.Context, templateID uuid.UUID) ([]repository.TemplateBundle, error) {
	return s.repo.TemplateBundlesByTemplate(ctx, templateID)
}

// ── Task generation ───────────────────────────────────────────────────────────

// GenerateTasks instantiates a template onto a worksheet: template bundles
// become task bundles with a provenance link, associations become tasks
// carrying the template's defaults and the association's bundling
// configuration.
func (s *Service) GenerateTasks(ctx context.Context, templateID, worksheetID uuid.UUID) error {
	if _, err := s.repo.GetTemplate(ctx, templateID); err != nil {
		return err
	}
	associations, err := s.repo.AssociationsByTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	if len(associations) == 0 {
		return apperr.Validation("template has no tasks to generate")
	}
	tplBundles, err := s.repo.TemplateBundlesByTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	taskTemplates := make(map[uuid.UUID]repository.TaskTemplate, len(associations))
	for _, a := range associations {
		if _, ok := taskTemplates[a.TaskTemplateID]; ok {
			continue
		}
		tt, err := s.repo.GetTaskTemplate(ctx, a.TaskTemplateID)
		if err != nil {
			return err
		}
		taskTemplates[a.TaskTemplateID] = *tt
	}

	bundles, tasks, err := planGeneration(associations, tplBundles, taskTemplates)
	if err != nil {
		return err
	}
	if err := s.worksheets.ImportGenerated(ctx, worksheetID, bundles, tasks); err != nil {
		return err
	}
	s.log.Info("template tasks generated",
		"template_id", templateID, "worksheet_id", worksheetID,
		"tasks", len(tasks), "bundles", len(bundles))
	return nil
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
