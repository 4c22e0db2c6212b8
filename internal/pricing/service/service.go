// Package service provides pricing configuration business logic: line item
// types, bundling rules, and tax calculation.
package service

import (
	"context"
	"strings"
	"time"

	"fieldops_backend/internal/pricing/repository"
	"fieldops_backend/internal/pricing/transport"
	"fieldops_backend/internal/settings"
	"fieldops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pricing methods for bundling rules.
const (
	PricingSumComponents     = "sum_components"
	PricingTemplateBase      = "template_base"
	PricingCustomCalculation = "custom_calculation"
)

// Default units for bundled line items.
const (
	UnitsEach  = "each"
	UnitsHours = "hours"
)

// Service provides business logic for pricing configuration.
type Service struct {
	repo     *repository.Repository
	settings *settings.Service
}

// New creates a new pricing service.
func New(repo *repository.Repository, settingsSvc *settings.Service) *Service {
	return &Service{repo: repo, settings: settingsSvc}
}

// ── Line item types ───────────────────────────────────────────────────────────

// CreateLineItemType creates a new line item type.
func (s *Service) CreateLineItemType(ctx context.Context, req transport.CreateLineItemTypeRequest) (*repository.LineItemType, error) {
	now := time.Now()
	t := repository.LineItemType{
		ID:        uuid.New(),
		Code:      strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:      strings.TrimSpace(req.Name),
		Taxable:   req.Taxable,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if t.Code == "" || t.Name == "" {
		return nil, apperr.Validation("line item type code and name are required")
	}
	if err := s.repo.CreateLineItemType(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetLineItemType returns one line item type.
func (s *Service) GetLineItemType(ctx context.Context, id uuid.UUID) (*repository.LineItemType, error) {
	return s.repo.GetLineItemType(ctx, id)
}

// ListLineItemTypes returns all line item types.
func (s *Service) ListLineItemTypes(ctx context.Context) ([]repository.LineItemType, error) {
	return s.repo.ListLineItemTypes(ctx)
}

// UpdateLineItemType applies a partial update.
func (s *Service) UpdateLineItemType(ctx context.Context, id uuid.UUID, req transport.UpdateLineItemTypeRequest) (*repository.LineItemType, error) {
	t, err := s.repo.GetLineItemType(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Code != nil {
		t.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Taxable != nil {
		t.Taxable = *req.Taxable
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if t.Code == "" || t.Name == "" {
		return nil, apperr.Validation("line item type code and name are required")
	}
	if err := s.repo.UpdateLineItemType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteLineItemType removes a type unless it is still referenced.
func (s *Service) DeleteLineItemType(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteLineItemType(ctx, id)
}

// DefaultLineItemTypeID resolves the app-wide default line item type:
// active SVC, then active DIR, then any active type.
func (s *Service) DefaultLineItemTypeID(ctx context.Context) (*uuid.UUID, error) {
	t, err := s.repo.DefaultLineItemType(ctx)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t.ID, nil
}

// LineItemTypeTaxable reports a type's taxability for tax calculation.
func (s *Service) LineItemTypeTaxable(ctx context.Context, id uuid.UUID) (*bool, error) {
	t, err := s.repo.GetLineItemType(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t.Taxable, nil
}

// ── Bundling rules ────────────────────────────────────────────────────────────

func (s *Service) validateRule(ctx context.Context, b *repository.BundlingRule) error {
	if strings.TrimSpace(b.RuleName) == "" || strings.TrimSpace(b.ProductType) == "" {
		return apperr.Validation("rule name and product type are required")
	}
	switch b.PricingMethod {
	case PricingSumComponents, PricingCustomCalculation:
	case PricingTemplateBase:
		if b.WorkOrderTemplateID == nil {
			return apperr.Validation("template_base pricing requires a work order template")
		}
		basePrice, err := s.repo.TemplateBasePrice(ctx, *b.WorkOrderTemplateID)
		if err != nil {
			return err
		}
		if basePrice == nil {
			return apperr.Validation("template_base pricing requires a template with a base price")
		}
	default:
		return apperr.Validationf("unknown pricing method %q", b.PricingMethod)
	}
	switch b.DefaultUnits {
	case UnitsEach, UnitsHours:
	default:
		return apperr.Validationf("unknown default units %q", b.DefaultUnits)
	}
	return nil
}

// CreateBundlingRule creates a new bundling rule.
func (s *Service) CreateBundlingRule(ctx context.Context, req transport.CreateBundlingRuleRequest) (*repository.BundlingRule, error) {
	now := time.Now()
	b := repository.BundlingRule{
		ID:                   uuid.New(),
		RuleName:             strings.TrimSpace(req.RuleName),
		ProductType:          strings.TrimSpace(req.ProductType),
		WorkOrderTemplateID:  req.WorkOrderTemplateID,
		PricingMethod:        req.PricingMethod,
		DefaultUnits:         req.DefaultUnits,
		CombineInstances:     req.CombineInstances,
		IncludeMaterials:     orTrue(req.IncludeMaterials),
		IncludeLabor:         orTrue(req.IncludeLabor),
		IncludeOverhead:      orTrue(req.IncludeOverhead),
		OutputLineItemTypeID: req.OutputLineItemTypeID,
		Priority:             req.Priority,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if b.PricingMethod == "" {
		b.PricingMethod = PricingSumComponents
	}
	if b.DefaultUnits == "" {
		b.DefaultUnits = UnitsEach
	}
	if err := s.validateRule(ctx, &b); err != nil {
		return nil, err
	}
	if err := s.repo.CreateBundlingRule(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBundlingRule returns one rule.
func (s *Service) GetBundlingRule(ctx context.Context, id uuid.UUID) (*repository.BundlingRule, error) {
	return s.repo.GetBundlingRule(ctx, id)
}

// ListBundlingRules returns all rules.
func (s *Service) ListBundlingRules(ctx context.Context) ([]repository.BundlingRule, error) {
	return s.repo.ListBundlingRules(ctx)
}

// UpdateBundlingRule applies a partial update, re-validating the result.
func (s *Service) UpdateBundlingRule(ctx context.Context, id uuid.UUID, req transport.UpdateBundlingRuleRequest) (*repository.BundlingRule, error) {
	b, err := s.repo.GetBundlingRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RuleName != nil {
		b.RuleName = strings.TrimSpace(*req.RuleName)
	}
	if req.ProductType != nil {
		b.ProductType = strings.TrimSpace(*req.ProductType)
	}
	if req.WorkOrderTemplateID != nil {
		b.WorkOrderTemplateID = req.WorkOrderTemplateID
	}
	if req.PricingMethod != nil {
		b.PricingMethod = *req.PricingMethod
	}
	if req.DefaultUnits != nil {
		b.DefaultUnits = *req.DefaultUnits
	}
	if req.CombineInstances != nil {
		b.CombineInstances = *req.CombineInstances
	}
	if req.IncludeMaterials != nil {
		b.IncludeMaterials = *req.IncludeMaterials
	}
	if req.IncludeLabor != nil {
		b.IncludeLabor = *req.IncludeLabor
	}
	if req.IncludeOverhead != nil {
		b.IncludeOverhead = *req.IncludeOverhead
	}
	if req.OutputLineItemTypeID != nil {
		b.OutputLineItemTypeID = req.OutputLineItemTypeID
	}
	if req.Priority != nil {
		b.Priority = *req.Priority
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if err := s.validateRule(ctx, b); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBundlingRule(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBundlingRule removes a rule.
func (s *Service) DeleteBundlingRule(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteBundlingRule(ctx, id)
}

// RuleForProductType resolves the winning active rule for a product type, or
// nil when no rule applies (callers fall back to defaults).
func (s *Service) RuleForProductType(ctx context.Context, productType string) (*repository.BundlingRule, error) {
	rule, err := s.repo.ActiveRuleForProductType(ctx, productType)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rule, nil
}

// TemplateBasePrice exposes a template's base price for bundle pricing.
func (s *Service) TemplateBasePrice(ctx context.Context, templateID uuid.UUID) (*decimal.Decimal, error) {
	return s.repo.TemplateBasePrice(ctx, templateID)
}

// DefaultTaxRate returns the configured default tax percentage.
func (s *Service) DefaultTaxRate(ctx context.Context) decimal.Decimal {
	return s.settings.DefaultTaxRate(ctx)
}

// OrgTaxMultiplier returns the organization tax multiplier, if configured.
func (s *Service) OrgTaxMultiplier(ctx context.Context) *decimal.Decimal {
	return s.settings.OrgTaxMultiplier(ctx)
}

func orTrue(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}
