// Package handler handles HTTP requests for pricing configuration.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldops_backend/internal/pricing/repository"
	"fieldops_backend/internal/pricing/service"
	"fieldops_backend/internal/pricing/transport"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/validator"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid id"
)

// Handler handles HTTP requests for pricing.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new pricing handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the pricing routes.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	types := group.Group("/line-item-types")
	types.GET("", h.ListLineItemTypes)
	types.POST("", h.CreateLineItemType)
	types.GET("/:id", h.GetLineItemType)
	types.PATCH("/:id", h.UpdateLineItemType)
	types.DELETE("/:id", h.DeleteLineItemType)

	rules := group.Group("/bundling-rules")
	rules.GET("", h.ListBundlingRules)
	rules.POST("", h.CreateBundlingRule)
	rules.GET("/:id", h.GetBundlingRule)
	rules.PATCH("/:id", h.UpdateBundlingRule)
	rules.DELETE("/:id", h.DeleteBundlingRule)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// ── Line item types ───────────────────────────────────────────────────────────

// ListLineItemTypes retrieves all line item types.
// GET /api/v1/pricing/line-item-types
func (h *Handler) ListLineItemTypes(c *gin.Context) {
	items, err := h.svc.ListLineItemTypes(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	responses := make([]transport.LineItemTypeResponse, len(items))
	for i, item := range items {
		responses[i] = toLineItemTypeResponse(&item)
	}
	httpkit.OK(c, gin.H{"items": responses})
}

// CreateLineItemType creates a line item type.
// POST /api/v1/pricing/line-item-types
func (h *Handler) CreateLineItemType(c *gin.Context) {
	var req transport.CreateLineItemTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	created, err := h.svc.CreateLineItemType(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toLineItemTypeResponse(created))
}

// GetLineItemType retrieves a line item type by ID.
// GET /api/v1/pricing/line-item-types/:id
func (h *Handler) GetLineItemType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.svc.GetLineItemType(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLineItemTypeResponse(item))
}

// UpdateLineItemType partially updates a line item type.
// PATCH /api/v1/pricing/line-item-types/:id
func (h *Handler) UpdateLineItemType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateLineItemTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	updated, err := h.svc.UpdateLineItemType(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLineItemTypeResponse(updated))
}

// DeleteLineItemType deletes a line item type (blocked while referenced).
// DELETE /api/v1/pricing/line-item-types/:id
func (h *Handler) DeleteLineItemType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteLineItemType(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// ── Bundling rules ────────────────────────────────────────────────────────────

// ListBundlingRules retrieves all bundling rules.
// GET /api/v1/pricing/bundling-rules
func (h *Handler) ListBundlingRules(c *gin.Context) {
	items, err := h.svc.ListBundlingRules(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	responses := make([]transport.BundlingRuleResponse, len(items))
	for i, item := range items {
		responses[i] = toBundlingRuleResponse(&item)
	}
	httpkit.OK(c, gin.H{"items": responses})
}

// CreateBundlingRule creates a bundling rule.
// POST /api/v1/pricing/bundling-rules
func (h *Handler) CreateBundlingRule(c *gin.Context) {
	var req transport.CreateBundlingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	created, err := h.svc.CreateBundlingRule(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toBundlingRuleResponse(created))
}

// GetBundlingRule retrieves a bundling rule by ID.
// GET /api/v1/pricing/bundling-rules/:id
func (h *Handler) GetBundlingRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rule, err := h.svc.GetBundlingRule(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toBundlingRuleResponse(rule))
}

// UpdateBundlingRule partially updates a bundling rule.
// PATCH /api/v1/pricing/bundling-rules/:id
func (h *Handler) UpdateBundlingRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateBundlingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	updated, err := h.svc.UpdateBundlingRule(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toBundlingRuleResponse(updated))
}

// DeleteBundlingRule deletes a bundling rule.
// DELETE /api/v1/pricing/bundling-rules/:id
func (h *Handler) DeleteBundlingRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteBundlingRule(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

func toLineItemTypeResponse(t *repository.LineItemType) transport.LineItemTypeResponse {
	return transport.LineItemTypeResponse{
		ID:        t.ID,
		Code:      t.Code,
		Name:      t.Name,
		Taxable:   t.Taxable,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toBundlingRuleResponse(b *repository.BundlingRule) transport.BundlingRuleResponse {
	return transport.BundlingRuleResponse{
		ID:                   b.ID,
		RuleName:             b.RuleName,
		ProductType:          b.ProductType,
		WorkOrderTemplateID:  b.WorkOrderTemplateID,
		PricingMethod:        b.PricingMethod,
		DefaultUnits:         b.DefaultUnits,
		CombineInstances:     b.CombineInstances,
		IncludeMaterials:     b.IncludeMaterials,
		IncludeLabor:         b.IncludeLabor,
		IncludeOverhead:      b.IncludeOverhead,
		OutputLineItemTypeID: b.OutputLineItemTypeID,
		Priority:             b.Priority,
		IsActive:             b.IsActive,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
}
